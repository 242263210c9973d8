// Package tradelog is the append-only trade log. Once a Trade is
// appended it is never mutated or removed (spec.md §3 invariant 6);
// a fill-or-kill order that cannot fully fill commits nothing here.
package tradelog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade records a single match between a buy and a sell order. Price is
// always the resting (maker) order's price — price improvement accrues
// to the incoming (taker) order on a crossing market (spec.md §3).
type Trade struct {
	ID          uuid.UUID
	BuyOrderID  uuid.UUID
	SellOrderID uuid.UUID
	ItemID      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Timestamp   time.Time
}

// Log is the append-only, ordered sequence of committed trades.
type Log struct {
	trades []Trade
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append adds a trade to the end of the log, in generation order.
func (l *Log) Append(t Trade) {
	l.trades = append(l.trades, t)
}

// All returns every committed trade, oldest first.
func (l *Log) All() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Len returns the number of committed trades.
func (l *Log) Len() int {
	return len(l.trades)
}
