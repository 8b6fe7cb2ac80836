package coord

import (
	"context"
	"sync"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
)

// Listener hears about refreshes the Coordinator starts on its own
// (timer ticks and Trigger). Calls arrive on background goroutines.
type Listener interface {
	RefreshStarted(auto bool)
	RefreshFinished(r Result, auto bool)
}

// Coordinator binds a Controller and an AutoRefresh timer to a Listener.
// Uses context cancellation as the only stop mechanism.
type Coordinator struct {
	ctrl     *Controller
	auto     *AutoRefresh
	listener Listener
	events   *otel.Logger

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

// NewCoordinator creates a Coordinator around ctrl. events may be nil.
func NewCoordinator(ctrl *Controller, events *otel.Logger) *Coordinator {
	c := &Coordinator{
		ctrl:   ctrl,
		events: events,
		ctx:    context.Background(),
	}
	c.auto = NewAutoRefresh(func() { c.Trigger(true) }, events)
	return c
}

// SetListener must be called before Start.
func (c *Coordinator) SetListener(l Listener) {
	c.listener = l
}

// Start records the application context. Background refreshes and the
// timer all derive from it and end when it is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
}

func (c *Coordinator) appContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Controller exposes the wrapped controller.
func (c *Coordinator) Controller() *Controller { return c.ctrl }

// Snapshot returns the published dataset, or nil.
func (c *Coordinator) Snapshot() *Snapshot { return c.ctrl.Snapshot() }

// Refresh runs a cycle synchronously. The Listener is not told; the caller
// owns the result.
func (c *Coordinator) Refresh(ctx context.Context) Result {
	return c.ctrl.Refresh(ctx)
}

// Trigger runs a cycle in the background and reports it to the Listener.
// Overlapping triggers are not collapsed.
func (c *Coordinator) Trigger(auto bool) {
	ctx := c.appContext()
	if ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.listener != nil {
			c.listener.RefreshStarted(auto)
		}
		r := c.ctrl.Refresh(ctx)
		if c.listener != nil {
			c.listener.RefreshFinished(r, auto)
		}
	}()
}

// Configure re-arms the auto-refresh timer and returns the effective
// interval.
func (c *Coordinator) Configure(enabled bool, interval time.Duration) time.Duration {
	return c.auto.Configure(c.appContext(), enabled, interval)
}

// AutoState reports whether auto-refresh is armed and its period.
func (c *Coordinator) AutoState() (bool, time.Duration) {
	return c.auto.State()
}

// Wait stops the timer and blocks until background refreshes return.
// Cancel the Start context first so in-flight fetches abort.
func (c *Coordinator) Wait() {
	c.auto.Stop()
	c.wg.Wait()
}
