package otel

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// l.mu guards the ring pointer alone and is never held while pushing.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the number of events waiting for the writer.
const queueSize = 2048

type entry struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL without blocking the caller. Events that do
// not fit in the queue are dropped and counted. Safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	ring    *RingBuffer
	session string
	ch      chan entry
	w       io.Writer
	dropped atomic.Uint64
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewLogger starts a Logger writing to w. Close flushes it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: uuid.NewString()[:8],
		ch:      make(chan entry, queueSize),
		w:       w,
		done:    make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger discards everything. Close still needs to be called.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

// SessionID identifies this process run in every event.
func (l *Logger) SessionID() string { return l.session }

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.ch {
		if _, err := l.w.Write(e.line); err != nil {
			l.dropped.Add(1)
		}
		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()
		if ring != nil {
			ring.Push(e.ev)
		}
	}
}

// Emit queues e. A nil Logger is a no-op so optional loggers need no guards.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	// Close may win the race between the flag check and the send.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Level == "" {
		e.Level = LevelInfo
	}
	e.SessionID = l.session

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- entry{line: append(line, '\n'), ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info event with a message.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn event with a message.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event. A nil err is recorded as an empty string.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors every written event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.mu.Lock()
	l.ring = ring
	l.mu.Unlock()
}

// Dropped counts events lost to a full queue, encoding or write errors.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close flushes queued events and stops the writer. Emit after Close drops.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done
		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "auctionwatch: %d events dropped in session %s\n", n, l.session)
		}
	})
}

// OpenFile appends events to path, creating it with owner-only permissions.
func OpenFile(path string) (*Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	return NewLogger(f), f, nil
}
