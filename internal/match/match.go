// Package match implements the matching engine: it consumes a newly
// admitted order, walks the opposing side of the book in price-then-
// time order, computes trade quantities, mutates resting and incoming
// orders, applies time-in-force post-processing, and appends to the
// trade log.
//
// Grounded on the teacher's internal/engine/orderbook.go Match/
// handleLimit/handleMarket sweep (price-then-time walk, min(available,
// remaining) fill math, level compaction after a sweep), generalized
// with a stage-then-commit protocol — modeled on
// other_examples/cfc22507_manangoyal18-GOLANG-ORDER-MATCHING-SYSTEM's
// MatchResult staging struct — so that fill-or-kill can revert with
// zero side effects, which the teacher's in-place mutation cannot do.
package match

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"matchcore/internal/book"
	"matchcore/internal/clock"
	"matchcore/internal/config"
	"matchcore/internal/store"
	"matchcore/internal/tradelog"
	"matchcore/internal/types"
)

// Engine owns the store, book, and trade log it matches against. It
// never runs concurrently with itself; see spec.md §5.
type Engine struct {
	store  *store.Store
	book   *book.Book
	trades *tradelog.Log
	clk    clock.Clock
	ids    clock.IDGenerator
	cfg    config.Config
	log    zerolog.Logger
}

// New constructs a matching Engine over the given collaborators.
func New(st *store.Store, bk *book.Book, tl *tradelog.Log, clk clock.Clock, ids clock.IDGenerator, cfg config.Config, logger zerolog.Logger) *Engine {
	return &Engine{store: st, book: bk, trades: tl, clk: clk, ids: ids, cfg: cfg, log: logger}
}

// stagedTrade is a trade computed during the walk but not yet committed
// to the trade log.
type stagedTrade struct {
	buyOrderID  uuid.UUID
	sellOrderID uuid.UUID
	quantity    decimal.Decimal
	price       decimal.Decimal
}

// MatchIncoming runs the full §4.4 algorithm against order, which must
// already be present in the store (via its pointer) with status Open
// and QuantityFilled zero, and must not yet be present in the book.
func (e *Engine) MatchIncoming(order *types.Order) {
	now := e.clk.Now()
	opposite := order.Side.Opposite()

	entries := e.book.Snapshot(order.ItemID, opposite)

	var stagedTrades []stagedTrade
	fills := make(map[uuid.UUID]decimal.Decimal)
	incomingFilled := order.QuantityFilled

	for _, entry := range entries {
		if incomingFilled.Equal(order.Quantity) {
			break
		}

		resting := e.store.Get(entry.OrderID)
		if resting == nil {
			// Defensive: the index referenced an order no longer in the store.
			continue
		}

		if resting.Expired(now) {
			e.book.Remove(resting.ItemID, resting.Side, resting.Price, resting.ID)
			resting.Status = types.Cancelled
			resting.UpdatedAt = now
			e.log.Info().
				Stringer("order_id", resting.ID).
				Str("item_id", resting.ItemID).
				Msg("removed expired DAY order encountered during match")
			continue
		}

		if !crosses(order, resting) {
			// Prices are visited in priority order: the first non-crossing
			// price halts the walk.
			break
		}

		alreadyStaged := fills[resting.ID]
		available := resting.Remaining().Sub(alreadyStaged)
		if available.Sign() <= 0 {
			continue
		}

		remainingIncoming := order.Quantity.Sub(incomingFilled)
		tradeQty := decimal.Min(available, remainingIncoming)
		if tradeQty.Sign() <= 0 {
			continue
		}

		buyID, sellID := order.ID, resting.ID
		if order.Side == types.Sell {
			buyID, sellID = resting.ID, order.ID
		}
		stagedTrades = append(stagedTrades, stagedTrade{
			buyOrderID:  buyID,
			sellOrderID: sellID,
			quantity:    tradeQty,
			price:       resting.Price,
		})
		fills[resting.ID] = alreadyStaged.Add(tradeQty)
		incomingFilled = incomingFilled.Add(tradeQty)
	}

	e.applyTimeInForce(order, now, stagedTrades, fills, incomingFilled)
}

// crosses reports whether incoming may trade against resting at
// resting's price, per spec.md §4.4 step 3c.
func crosses(incoming, resting *types.Order) bool {
	if incoming.OrderType == types.Market {
		return true
	}
	if incoming.Side == types.Buy {
		return incoming.Price.GreaterThanOrEqual(resting.Price)
	}
	return incoming.Price.LessThanOrEqual(resting.Price)
}

// applyTimeInForce implements the TIF post-processing table of spec.md §4.4 step 4.
func (e *Engine) applyTimeInForce(order *types.Order, now time.Time, staged []stagedTrade, fills map[uuid.UUID]decimal.Decimal, incomingFilled decimal.Decimal) {
	if order.TimeInForce == types.FOK && !incomingFilled.Equal(order.Quantity) {
		// Revert: discard all staged trades and fills. No book mutation
		// beyond the unconditional expired-order cleanup already applied
		// above, which is not part of the staged set.
		order.Status = types.Cancelled
		order.UpdatedAt = now
		e.log.Info().
			Stringer("order_id", order.ID).
			Str("item_id", order.ItemID).
			Msg("fill-or-kill order could not be fully filled; reverted")
		return
	}

	e.commit(order, now, staged, fills, incomingFilled)

	switch order.TimeInForce {
	case types.IOC:
		order.Quantity = incomingFilled
		order.Status = types.Closed
		order.UpdatedAt = now
	default: // GTC, DAY, and a fully-filled FOK
		remaining := order.Quantity.Sub(incomingFilled)
		switch {
		case incomingFilled.Sign() == 0:
			order.Status = types.Open
		case remaining.Sign() == 0:
			order.Status = types.Closed
		default:
			order.Status = types.PartiallyFilled
		}
		order.UpdatedAt = now
		if order.Status.RestsOnBook() {
			e.book.Insert(order.ItemID, order.Side, order.Price, order.ID)
		}
	}
}

// commit applies staged fills to resting orders and appends staged
// trades to the trade log, in generation order.
func (e *Engine) commit(order *types.Order, now time.Time, staged []stagedTrade, fills map[uuid.UUID]decimal.Decimal, incomingFilled decimal.Decimal) {
	for id, qty := range fills {
		resting := e.store.Get(id)
		if resting == nil {
			continue
		}
		resting.QuantityFilled = resting.QuantityFilled.Add(qty)
		resting.UpdatedAt = now
		if resting.Remaining().Sign() == 0 {
			resting.Status = types.Closed
			e.book.Remove(resting.ItemID, resting.Side, resting.Price, resting.ID)
		} else {
			resting.Status = types.PartiallyFilled
		}
	}

	order.QuantityFilled = incomingFilled

	for _, t := range staged {
		if t.quantity.Sign() == 0 {
			continue
		}
		trade := tradelog.Trade{
			ID:          e.ids.New(),
			BuyOrderID:  t.buyOrderID,
			SellOrderID: t.sellOrderID,
			ItemID:      order.ItemID,
			Quantity:    t.quantity,
			Price:       t.price,
			Timestamp:   now,
		}
		e.trades.Append(trade)
		e.log.Info().
			Stringer("trade_id", trade.ID).
			Str("item_id", trade.ItemID).
			Stringer("buy_order_id", trade.BuyOrderID).
			Stringer("sell_order_id", trade.SellOrderID).
			Stringer("price", trade.Price).
			Stringer("quantity", trade.Quantity).
			Msg("trade committed")
	}
}
