// Package suppress remembers request sequence numbers whose side effects
// would otherwise look like user input.
package suppress

import (
	"sync"
	"time"
)

// Horizon is how long an entry stays live. X sequence numbers are 16 bits
// and wrap, so entries must not outlive a plausible reuse.
const Horizon = 5 * time.Second

type entry struct {
	sequence uint16
	typed    bool
	kind     byte
	stored   time.Time
}

// Table is a FIFO of recent sequence numbers. Entries are kept in insertion
// order so expiry only ever trims the front.
type Table struct {
	mu      sync.Mutex
	entries []entry
	horizon time.Duration
	now     func() time.Time
}

// Option configures a Table.
type Option func(*Table)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// WithHorizon replaces the default expiry horizon.
func WithHorizon(d time.Duration) Option {
	return func(t *Table) { t.horizon = d }
}

// New returns an empty table.
func New(opts ...Option) *Table {
	t := &Table{horizon: Horizon, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add suppresses every event carrying sequence.
func (t *Table) Add(sequence uint16) {
	t.push(entry{sequence: sequence})
}

// AddTyped suppresses only events of the given response type carrying
// sequence.
func (t *Table) AddTyped(sequence uint16, kind byte) {
	t.push(entry{sequence: sequence, typed: true, kind: kind})
}

func (t *Table) push(e entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.stored = t.now()
	t.entries = append(t.entries, e)
}

// IsIgnored expires old entries and reports whether an event of type kind
// with the given sequence should be dropped. Matching entries are kept; one
// request can produce several events.
func (t *Table) IsIgnored(sequence uint16, kind byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expire()
	for _, e := range t.entries {
		if e.sequence == sequence && (!e.typed || e.kind == kind) {
			return true
		}
	}
	return false
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expire()
	return len(t.entries)
}

func (t *Table) expire() {
	now := t.now()
	n := 0
	for n < len(t.entries) && now.Sub(t.entries[n].stored) >= t.horizon {
		n++
	}
	if n == 0 {
		return
	}
	// Copy down so the backing array does not pin expired entries forever.
	rest := copy(t.entries, t.entries[n:])
	t.entries = t.entries[:rest]
}
