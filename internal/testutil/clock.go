package testutil

import (
	"fmt"
	"sync"
	"time"

	"dumpstats/internal/stats"
)

// Epoch is the instant every StubClock made by FixedClock reports.
var Epoch = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

// StubClock reports a controlled time. When step is non-zero each
// reading moves the clock forward by step, so consecutive runs and cache
// entries get distinct, ordered timestamps.
type StubClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStubClock starts a clock at start that advances by step per reading.
func NewStubClock(start time.Time, step time.Duration) *StubClock {
	return &StubClock{now: start, step: step}
}

// FixedClock returns a clock stopped at Epoch.
func FixedClock() *StubClock {
	return NewStubClock(Epoch, 0)
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set moves the clock to t.
func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SequenceIDs hands out run IDs prefix-0001, prefix-0002, ...
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs returns a generator with the "run" prefix.
func NewSequenceIDs() *SequenceIDs {
	return &SequenceIDs{prefix: "run"}
}

func (g *SequenceIDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

var (
	_ stats.Clock       = (*StubClock)(nil)
	_ stats.IDGenerator = (*SequenceIDs)(nil)
)
