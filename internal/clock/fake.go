package clock

import (
	"time"

	"github.com/google/uuid"
)

// Fake is a deterministic Clock for tests: each call to Now advances by
// step (default 1ns if zero) from a fixed start.
type Fake struct {
	current time.Time
	step    time.Duration
}

// NewFake returns a Fake clock starting at start, advancing by step per call.
func NewFake(start time.Time, step time.Duration) *Fake {
	if step <= 0 {
		step = time.Nanosecond
	}
	return &Fake{current: start.Add(-step), step: step}
}

func (f *Fake) Now() time.Time {
	f.current = f.current.Add(f.step)
	return f.current
}

// Set pins the clock to a specific time for the next Now() call's baseline.
func (f *Fake) Set(t time.Time) {
	f.current = t.Add(-f.step)
}

// SequentialIDs is a deterministic IDGenerator for tests: it returns
// UUIDs derived from an incrementing counter so test output is stable
// and comparable across runs.
type SequentialIDs struct {
	next uint64
}

// NewSequentialIDs returns an IDGenerator starting at 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

func (s *SequentialIDs) New() uuid.UUID {
	s.next++
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[15-i] = byte(s.next >> (8 * i))
	}
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		// Unreachable: FromBytes only fails on a slice of the wrong length.
		panic(err)
	}
	return id
}
