// Package book implements the price-level index: per item and side, an
// ordered mapping from price to a FIFO queue of resting order IDs.
// Enables O(log P) best-price lookup and O(log P + 1) priority-ordered
// iteration. Grounded directly on the teacher's
// internal/engine/orderbook.go, which builds the same structure with
// github.com/tidwall/btree.BTreeG and a greater-than/less-than price
// comparator per side; generalized here to be keyed per (item, side)
// and to hold only order IDs rather than *Order pointers, so a stale
// copy of quantity_filled can never live in the index (spec.md §9).
package book

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"matchcore/internal/types"
)

// level is a single price point: the price itself plus the FIFO of
// resting order IDs at that price, oldest first.
type level struct {
	price  decimal.Decimal
	orders []uuid.UUID
}

type levels = btree.BTreeG[*level]

// sideBook is one side (bids or asks) of one item's book.
type sideBook struct {
	tree *levels
}

func newSideBook(side types.Side) *sideBook {
	var less func(a, b *level) bool
	if side == types.Buy {
		// Bids: highest price first.
		less = func(a, b *level) bool { return a.price.GreaterThan(b.price) }
	} else {
		// Asks: lowest price first.
		less = func(a, b *level) bool { return a.price.LessThan(b.price) }
	}
	return &sideBook{tree: btree.NewBTreeG(less)}
}

// Book is the full set of price-level indices, keyed by item and side.
type Book struct {
	sides map[string][2]*sideBook // index 0 = Buy, 1 = Sell
}

// New returns an empty Book.
func New() *Book {
	return &Book{sides: make(map[string][2]*sideBook)}
}

func (b *Book) sideFor(itemID string, side types.Side) *sideBook {
	pair, ok := b.sides[itemID]
	if !ok {
		pair = [2]*sideBook{newSideBook(types.Buy), newSideBook(types.Sell)}
		b.sides[itemID] = pair
	}
	return pair[side]
}

// Insert appends id to the FIFO at (itemID, side, price), creating the
// price bucket if it does not already exist.
func (b *Book) Insert(itemID string, side types.Side, price decimal.Decimal, id uuid.UUID) {
	sb := b.sideFor(itemID, side)
	key := &level{price: price}
	if existing, ok := sb.tree.Get(key); ok {
		existing.orders = append(existing.orders, id)
		return
	}
	key.orders = []uuid.UUID{id}
	sb.tree.Set(key)
}

// Remove deletes id from the FIFO at (itemID, side, price). Drops the
// price bucket if it becomes empty, and drops the item entirely if both
// sides become empty. No-op if the id is not present at that price.
func (b *Book) Remove(itemID string, side types.Side, price decimal.Decimal, id uuid.UUID) {
	pair, ok := b.sides[itemID]
	if !ok {
		return
	}
	sb := pair[side]
	key := &level{price: price}
	lv, ok := sb.tree.Get(key)
	if !ok {
		return
	}
	for i, existingID := range lv.orders {
		if existingID == id {
			lv.orders = append(lv.orders[:i], lv.orders[i+1:]...)
			break
		}
	}
	if len(lv.orders) == 0 {
		sb.tree.Delete(key)
	}
	if pair[types.Buy].tree.Len() == 0 && pair[types.Sell].tree.Len() == 0 {
		delete(b.sides, itemID)
	}
}

// Best returns the best resting price for (itemID, side): the highest
// bid, or the lowest ask. Returns false if that side is empty.
func (b *Book) Best(itemID string, side types.Side) (decimal.Decimal, bool) {
	pair, ok := b.sides[itemID]
	if !ok {
		return decimal.Zero, false
	}
	lv, ok := pair[side].tree.Min()
	if !ok {
		return decimal.Zero, false
	}
	return lv.price, true
}

// Entry is one (price, orderID) pair yielded by Walk, in matching-priority order.
type Entry struct {
	Price   decimal.Decimal
	OrderID uuid.UUID
}

// Snapshot returns every resting order on the given side of itemID's
// book, in matching-priority order (best price first, FIFO within
// price), as a fixed slice. Because the matching engine stages all
// trade mutations and only touches the book again at commit time (or to
// opportunistically drop an expired DAY order), it is safe to compute
// this once up front rather than re-querying the live tree mid-walk.
func (b *Book) Snapshot(itemID string, side types.Side) []Entry {
	var out []Entry
	b.Walk(itemID, side, func(e Entry) bool {
		out = append(out, e)
		return false
	})
	return out
}

// Walk enumerates every resting order on the given side of itemID's
// book in matching-priority order: best price first, FIFO within price.
// The callback may be called with a now-stale level if the caller
// mutates the book mid-walk (e.g. via Remove) — callers that do so
// should restart or account for this, matching the teacher's own
// walk-then-compact pattern.
func (b *Book) Walk(itemID string, side types.Side, fn func(Entry) (stop bool)) {
	pair, ok := b.sides[itemID]
	if !ok {
		return
	}
	pair[side].tree.Scan(func(lv *level) bool {
		for _, id := range lv.orders {
			if fn(Entry{Price: lv.price, OrderID: id}) {
				return false
			}
		}
		return true
	})
}
