package otel

import (
	"maps"
	"sync"
)

// DefaultRingSize is the capacity used when none is given.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events, oldest overwritten first.
// Safe for concurrent use.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []Event
	next int
	full bool
}

// NewRingBuffer returns a buffer holding up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{buf: make([]Event, size)}
}

// Push stores e. Extra is copied so later writes by the caller don't leak in.
func (r *RingBuffer) Push(e Event) {
	if e.Extra != nil {
		e.Extra = maps.Clone(e.Extra)
	}
	r.mu.Lock()
	r.buf[r.next] = e
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.lenLocked()
	if n <= 0 || count == 0 {
		return nil
	}
	if n > count {
		n = count
	}
	out := make([]Event, n)
	size := len(r.buf)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.next-n+i+size)%size]
	}
	return out
}

// Snapshot returns every buffered event, oldest first.
func (r *RingBuffer) Snapshot() []Event {
	return r.Last(r.Cap())
}

// Len is the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

func (r *RingBuffer) lenLocked() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Cap is the buffer capacity.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Counts tallies buffered events by kind.
func (r *RingBuffer) Counts() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range r.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}
