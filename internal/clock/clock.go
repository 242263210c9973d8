// Package clock provides the injected monotonic time source and UUID
// factory consumed by the matching engine. Production code never calls
// time.Now() or uuid.New() directly outside this package, so tests can
// substitute both for deterministic order admission and FIFO ordering.
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies strictly monotonic timestamps. CreatedAt must be
// strictly increasing within one process to keep FIFO ordering within a
// price bucket unambiguous (spec.md §9).
type Clock interface {
	Now() time.Time
}

// IDGenerator mints unique order identifiers.
type IDGenerator interface {
	New() uuid.UUID
}

// System is the production Clock, backed by time.Now but bumped forward
// by at least one nanosecond on every call so two calls in the same
// scheduler tick never tie.
type System struct {
	last time.Time
}

// NewSystem returns a ready-to-use monotonic system clock.
func NewSystem() *System {
	return &System{}
}

func (c *System) Now() time.Time {
	now := time.Now()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	return now
}

// UUIDGenerator is the production IDGenerator backed by google/uuid.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) New() uuid.UUID { return uuid.New() }
