// Package types holds the value types shared across the matching engine:
// identifiers, the order record, and the closed enumerations for side,
// order type, time-in-force, and status.
package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes limit orders from market orders, which are
// priced at admission from the opposite side's best price. A GTC or DAY
// order of either type rests on the book with any unfilled remainder.
type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Market {
		return "market"
	}
	return "limit"
}

// TimeInForce is the policy governing how an order is handled once it
// cannot be matched any further.
type TimeInForce int

const (
	// GTC rests on the book until cancelled.
	GTC TimeInForce = iota
	// IOC matches what is immediately available, then cancels the remainder.
	IOC
	// FOK matches the entire quantity immediately or cancels the whole order.
	FOK
	// DAY behaves like GTC but expires 24h after creation.
	DAY
)

func (t TimeInForce) String() string {
	switch t {
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	case DAY:
		return "DAY"
	default:
		return "GTC"
	}
}

// Status is an order's lifecycle state. Closed and Cancelled are terminal.
type Status int

const (
	Open Status = iota
	PartiallyFilled
	Closed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case PartiallyFilled:
		return "partially_filled"
	case Closed:
		return "closed"
	case Cancelled:
		return "cancelled"
	default:
		return "open"
	}
}

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s == Closed || s == Cancelled
}

// RestsOnBook reports whether an order with this status belongs in the
// price-level index (invariant 4 of spec.md §3).
func (s Status) RestsOnBook() bool {
	return s == Open || s == PartiallyFilled
}

// Order is an immutable identity plus mutable trading state. It is the
// single source of truth for quantity, fill progress, and status; the
// price-level index only ever stores its ID.
type Order struct {
	ID             uuid.UUID
	ItemID         string
	UserID         string
	Side           Side
	OrderType      OrderType
	TimeInForce    TimeInForce
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	QuantityFilled decimal.Decimal
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      *time.Time
}

// Remaining returns the quantity yet to be filled.
func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.QuantityFilled)
}

// Expired reports whether a DAY order's expiry has passed as of now.
func (o *Order) Expired(now time.Time) bool {
	if o.TimeInForce != DAY || o.ExpiresAt == nil {
		return false
	}
	return o.ExpiresAt.Before(now)
}

// Clone returns a deep-enough copy for snapshotting to a caller; decimal.Decimal
// and time.Time are immutable value types so a shallow struct copy suffices.
func (o Order) Clone() Order {
	return o
}
