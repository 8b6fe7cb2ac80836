package coord

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
)

type recordingListener struct {
	mu       sync.Mutex
	started  []bool
	finished []Result
	done     chan struct{}
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{}, 16)}
}

func (l *recordingListener) RefreshStarted(auto bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, auto)
}

func (l *recordingListener) RefreshFinished(r Result, auto bool) {
	l.mu.Lock()
	l.finished = append(l.finished, r)
	l.mu.Unlock()
	l.done <- struct{}{}
}

func waitFinished(t *testing.T, l *recordingListener) {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}

func TestTriggerNotifiesListener(t *testing.T) {
	ctrl := NewController(&mockPager{records: records("a", "b")}, auction.Normalizer{}, nil)
	c := NewCoordinator(ctrl, nil)
	l := newRecordingListener()
	c.SetListener(l)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.Trigger(false)
	waitFinished(t, l)
	cancel()
	c.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.started) != 1 || l.started[0] {
		t.Errorf("started = %v, want one manual start", l.started)
	}
	if len(l.finished) != 1 || !l.finished[0].OK() {
		t.Fatalf("finished = %+v", l.finished)
	}
	if c.Snapshot() == nil || len(c.Snapshot().Items) != 2 {
		t.Error("snapshot not published")
	}
}

func TestRefreshDoesNotNotify(t *testing.T) {
	ctrl := NewController(&mockPager{records: records("a")}, auction.Normalizer{}, nil)
	c := NewCoordinator(ctrl, nil)
	l := newRecordingListener()
	c.SetListener(l)
	c.Start(context.Background())

	if res := c.Refresh(context.Background()); !res.OK() {
		t.Fatalf("Refresh failed: %+v", res)
	}
	c.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.started) != 0 || len(l.finished) != 0 {
		t.Error("synchronous Refresh should not notify the listener")
	}
}

func TestTimerTriggersAutoRefresh(t *testing.T) {
	ctrl := NewController(&mockPager{records: records("a")}, auction.Normalizer{}, nil)
	c := NewCoordinator(ctrl, nil)
	c.auto.floor = time.Millisecond
	l := newRecordingListener()
	c.SetListener(l)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	c.Configure(true, 10*time.Millisecond)

	waitFinished(t, l)
	cancel()
	c.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.started) == 0 || !l.started[0] {
		t.Errorf("expected an auto refresh, got %v", l.started)
	}
	if enabled, _ := c.AutoState(); enabled {
		t.Error("Wait should disarm the timer")
	}
}

func TestTriggerAfterCancelIsNoop(t *testing.T) {
	pager := &mockPager{records: records("a")}
	c := NewCoordinator(NewController(pager, auction.Normalizer{}, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	c.Trigger(true)
	c.Wait()
	if pager.calls.Load() != 0 {
		t.Errorf("expected no fetch after cancel, got %d", pager.calls.Load())
	}
}
