// Package fiberid identifies fibers.
//
// An ID pairs a process-wide monotonic sequence number with the wall-clock time the fiber
// was created. IDs attribute interruption causes and label fibers in diagnostics.
package fiberid

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rickb777/date/v2/timespan"
)

// ID is a unique fiber identifier.
type ID struct {
	Seq       uint64
	StartTime time.Time
}

// None is the identifier of no fiber. Interruptions issued from outside any fiber
// (for example by a cancelled context) are attributed to None.
var None = ID{}

var counter atomic.Uint64

// New returns a fresh identifier stamped with the current time.
func New() ID {
	return ID{
		Seq:       counter.Add(1),
		StartTime: time.Now(),
	}
}

// IsNone reports whether id is the None identifier.
func (id ID) IsNone() bool {
	return id.Seq == 0
}

// Lifetime is the span between the fiber's start and now.
func (id ID) Lifetime() timespan.TimeSpan {
	return id.LifetimeUntil(time.Now())
}

// LifetimeUntil is the span between the fiber's start and the given instant.
func (id ID) LifetimeUntil(t time.Time) timespan.TimeSpan {
	return timespan.BetweenTimes(id.StartTime, t)
}

// PartitionKey routes every turn of the same fiber to the same scheduler worker.
func (id ID) PartitionKey() string {
	return fmt.Sprintf("fiber-%d", id.Seq)
}

func (id ID) String() string {
	if id.IsNone() {
		return "#none"
	}
	return fmt.Sprintf("#%d", id.Seq)
}
