// Package store holds the canonical, mutable Order records. It is the
// single source of truth for an order's current quantity, filled
// quantity, status, and timestamps — the price-level index only ever
// keeps the order's ID and resolves through this package (spec.md §9:
// "model the store as the sole owner").
package store

import (
	"matchcore/internal/types"

	"github.com/google/uuid"
)

// Store is a keyed collection mapping an order ID to its record.
// Deletion is never required; orders persist for the service's lifetime
// for lookup/history (spec.md §4.2).
type Store struct {
	orders map[uuid.UUID]*types.Order
}

// New returns an empty Store.
func New() *Store {
	return &Store{orders: make(map[uuid.UUID]*types.Order)}
}

// Insert adds a new order record. Callers must not insert the same ID twice.
func (s *Store) Insert(order *types.Order) {
	s.orders[order.ID] = order
}

// Get returns the order by ID, or nil if unknown.
func (s *Store) Get(id uuid.UUID) *types.Order {
	return s.orders[id]
}

// All returns every known order. No ordering is guaranteed.
func (s *Store) All() []types.Order {
	out := make([]types.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	return out
}
