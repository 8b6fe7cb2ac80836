// Package coord owns the dataset and decides when it is refreshed.
//
// A Controller runs one refresh cycle at a time per caller: fetch every
// page, normalize, summarize, then publish the result as an immutable
// Snapshot. Cycles may overlap; whichever finishes last wins. AutoRefresh
// re-runs cycles on a timer and a Coordinator ties both to whoever is
// listening (the TUI program or the HTTP hub).
package coord

import (
	"context"
	"maps"
	"sync/atomic"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/fetch"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/stats"
	"github.com/google/uuid"
)

// Phase is where the refresh cycle is.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// pager fetches every raw record. *fetch.Fetcher implements it.
type pager interface {
	FetchAll(ctx context.Context) ([]auction.RawRecord, error)
}

// Archiver keeps a history of successful refreshes. *store.Store implements it.
type Archiver interface {
	SaveSnapshot(refreshID string, at time.Time, items []auction.Item) (int, error)
}

// Snapshot is one published dataset. It is never modified after it is
// published; views must copy before sorting.
type Snapshot struct {
	RefreshID string
	Items     []auction.Item
	Stats     stats.Stats
	UpdatedAt time.Time
}

// Result is the outcome of one refresh cycle.
type Result struct {
	RefreshID string
	Phase     Phase // PhaseSuccess or PhaseFailed

	// Snapshot is the dataset published after the cycle: the new one on
	// success, whatever was there before on failure (possibly nil).
	Snapshot *Snapshot
	Err      error
	Hint     string
	Dur      time.Duration
}

// OK reports whether the cycle succeeded.
func (r Result) OK() bool { return r.Phase == PhaseSuccess }

// Controller runs refresh cycles and publishes their snapshots.
// Safe for concurrent use.
type Controller struct {
	pager   pager
	norm    auction.Normalizer
	events  *otel.Logger
	archive Archiver
	now     func() time.Time

	current  atomic.Pointer[Snapshot]
	last     atomic.Pointer[Result]
	inflight atomic.Int32
}

// NewController creates a Controller. events may be nil.
func NewController(p pager, norm auction.Normalizer, events *otel.Logger) *Controller {
	return &Controller{
		pager:  p,
		norm:   norm,
		events: events,
		now:    time.Now,
	}
}

// SetArchive enables snapshot archiving. Call before the first Refresh.
func (c *Controller) SetArchive(a Archiver) {
	c.archive = a
}

// Snapshot returns the published dataset, or nil before the first success.
func (c *Controller) Snapshot() *Snapshot {
	return c.current.Load()
}

// LastResult is the most recently completed cycle, or nil.
func (c *Controller) LastResult() *Result {
	return c.last.Load()
}

// Phase is PhaseLoading while any cycle runs and PhaseIdle otherwise.
// Success and failure are reported per cycle through Result.
func (c *Controller) Phase() Phase {
	if c.inflight.Load() > 0 {
		return PhaseLoading
	}
	return PhaseIdle
}

// Refresh runs one full cycle. On failure the previously published
// snapshot stays in place. A new cycle never cancels one already running.
func (c *Controller) Refresh(ctx context.Context) Result {
	rid := uuid.NewString()
	ctx = otel.WithRefreshID(ctx, rid)
	start := time.Now()

	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	c.events.Emit(otel.Event{Kind: otel.KindRefreshStart, Comp: "coord", RefreshID: rid})

	raws, err := c.pager.FetchAll(ctx)
	if err != nil {
		res := Result{
			RefreshID: rid,
			Phase:     PhaseFailed,
			Snapshot:  c.current.Load(),
			Err:       err,
			Hint:      fetch.Hint(err),
			Dur:       time.Since(start),
		}
		c.last.Store(&res)
		c.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindRefreshError, Comp: "coord",
			RefreshID: rid, Dur: res.Dur, Err: err.Error()})
		return res
	}

	if len(raws) > 0 && otel.SampleRecords() {
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRecordSample, Comp: "coord",
			RefreshID: rid, Extra: maps.Clone(map[string]any(raws[0]))})
	}

	items := make([]auction.Item, 0, len(raws))
	for _, raw := range raws {
		items = append(items, c.norm.Normalize(raw))
	}

	snap := &Snapshot{
		RefreshID: rid,
		Items:     items,
		Stats:     stats.Summarize(items),
		UpdatedAt: c.now(),
	}
	c.current.Store(snap)

	if c.archive != nil {
		if _, err := c.archive.SaveSnapshot(rid, snap.UpdatedAt, items); err != nil {
			c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindArchiveError, Comp: "coord",
				RefreshID: rid, Err: err.Error()})
		}
	}

	res := Result{RefreshID: rid, Phase: PhaseSuccess, Snapshot: snap, Dur: time.Since(start)}
	c.last.Store(&res)
	c.events.Emit(otel.Event{Kind: otel.KindRefreshComplete, Comp: "coord",
		RefreshID: rid, Count: len(items), Dur: res.Dur})
	return res
}
