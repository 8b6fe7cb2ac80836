package coord

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
)

const (
	// MinInterval is the shortest auto-refresh period.
	MinInterval = 10 * time.Second
	// DefaultInterval replaces zero or negative periods.
	DefaultInterval = 60 * time.Second
)

// ClampInterval applies the default and the floor to a requested period.
func ClampInterval(d time.Duration) time.Duration {
	return clamp(d, MinInterval)
}

func clamp(d, floor time.Duration) time.Duration {
	if d <= 0 {
		return DefaultInterval
	}
	if d < floor {
		return floor
	}
	return d
}

// AutoRefresh calls tick on a fixed period until reconfigured or stopped.
// At most one ticker is ever armed.
type AutoRefresh struct {
	tick   func()
	events *otel.Logger
	floor  time.Duration

	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}

	running atomic.Int32
}

// NewAutoRefresh returns a disarmed timer. tick must not block for long;
// it runs on the timer goroutine.
func NewAutoRefresh(tick func(), events *otel.Logger) *AutoRefresh {
	return &AutoRefresh{
		tick:     tick,
		events:   events,
		floor:    MinInterval,
		interval: DefaultInterval,
	}
}

// Configure cancels any armed ticker, then arms a new one when enabled.
// It returns the interval actually used. The ticker stops when ctx ends.
func (a *AutoRefresh) Configure(ctx context.Context, enabled bool, interval time.Duration) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	interval = clamp(interval, a.floor)
	a.enabled, a.interval = enabled, interval

	a.events.Emit(otel.Event{Kind: otel.KindAutoArm, Comp: "coord",
		Extra: map[string]any{"enabled": enabled, "interval_s": interval.Seconds()}})

	if !enabled {
		return interval
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel, a.done = cancel, done
	a.running.Add(1)
	go a.run(runCtx, interval, done)
	return interval
}

// Stop disarms the ticker, keeping the configured interval.
func (a *AutoRefresh) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.enabled = false
}

// State returns whether a ticker is armed and its period.
func (a *AutoRefresh) State() (bool, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled, a.interval
}

func (a *AutoRefresh) stopLocked() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.cancel, a.done = nil, nil
}

func (a *AutoRefresh) run(ctx context.Context, every time.Duration, done chan struct{}) {
	defer close(done)
	defer a.running.Add(-1)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.events.Emit(otel.Event{Kind: otel.KindAutoTick, Comp: "coord"})
			a.tick()
		}
	}
}
