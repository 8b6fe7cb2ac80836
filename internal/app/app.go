// Package app wires configuration into a running refresh pipeline: event
// log, fetcher, controller, optional archive and coordinator. Both the
// dashboard and the aw CLI start from here.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/config"
	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/fetch"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/store"
)

// Options selects the optional parts of a Runtime.
type Options struct {
	// EventLogPath appends structured events there. Empty disables the file.
	EventLogPath string
	// RingSize keeps the last events in memory for the debug overlay.
	// Zero disables the ring.
	RingSize int
}

// Runtime is a wired pipeline. Close releases everything it opened.
type Runtime struct {
	Config      *config.Config
	Events      *otel.Logger
	Ring        *otel.RingBuffer
	Fetcher     *fetch.Fetcher
	Controller  *coord.Controller
	Coordinator *coord.Coordinator

	// Archive is nil unless archive.enabled is set.
	Archive *store.Store

	closers []io.Closer
}

// EventLogPath is the default structured event log location.
func EventLogPath() string {
	return filepath.Join(config.DataDir(), "events.jsonl")
}

// New validates cfg and builds a Runtime from it.
func New(cfg *config.Config, opts Options) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg}

	if opts.EventLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.EventLogPath), 0755); err != nil {
			return nil, fmt.Errorf("create event log directory: %w", err)
		}
		events, closer, err := otel.OpenFile(opts.EventLogPath)
		if err != nil {
			return nil, err
		}
		rt.Events = events
		rt.closers = append(rt.closers, closer)
	} else if opts.RingSize > 0 {
		rt.Events = otel.NewNullLogger()
	}
	if opts.RingSize > 0 {
		rt.Ring = otel.NewRingBuffer(opts.RingSize)
		rt.Events.SetRingBuffer(rt.Ring)
	}

	up := cfg.Upstream
	rt.Fetcher = fetch.NewFetcher(fetch.Options{
		ListingURL:   up.ListingURL(),
		PerPage:      up.PerPage,
		MaxPages:     up.MaxPages,
		SortBy:       up.SortBy,
		Timeout:      up.Timeout(),
		PageInterval: up.PageInterval(),
		UserAgent:    up.UserAgent,
	}, rt.Events)

	norm := auction.Normalizer{SiteURL: up.SiteURL, AuctionID: up.AuctionID}
	rt.Controller = coord.NewController(rt.Fetcher, norm, rt.Events)

	if cfg.Archive.Enabled {
		st, err := OpenArchive(cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Archive = st
		rt.Controller.SetArchive(st)
		rt.closers = append(rt.closers, st)
		rt.pruneArchive(time.Now())
	}

	rt.Coordinator = coord.NewCoordinator(rt.Controller, rt.Events)

	rt.Events.Emit(otel.Event{
		Kind: otel.KindStartup,
		Comp: "main",
		URL:  up.ListingURL(),
		Msg:  "auction " + up.AuctionID,
	})
	return rt, nil
}

// OpenArchive opens the snapshot archive named by cfg, creating its
// directory.
func OpenArchive(cfg *config.Config) (*store.Store, error) {
	path := cfg.ArchivePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return st, nil
}

// pruneArchive drops observations older than archive.retention_days.
// Zero keeps everything.
func (rt *Runtime) pruneArchive(now time.Time) {
	days := rt.Config.Archive.RetentionDays
	if rt.Archive == nil || days <= 0 {
		return
	}
	n, err := rt.Archive.Prune(now.AddDate(0, 0, -days))
	if err != nil {
		logging.Warn("archive prune failed", "error", err)
		return
	}
	if n > 0 {
		logging.Info("archive pruned", "refreshes", n, "retention_days", days)
	}
}

// View is the initial table view from the config.
func (rt *Runtime) View() (filter.ViewState, error) {
	return ViewFromConfig(rt.Config.View)
}

// ViewFromConfig parses the configured sort and direction. An empty
// direction takes the sort key's default.
func ViewFromConfig(vc config.ViewConfig) (filter.ViewState, error) {
	v := filter.DefaultViewState()
	v.OnlyWithBids = vc.OnlyWithBids
	if vc.Sort != "" {
		key, err := filter.ParseSortKey(vc.Sort)
		if err != nil {
			return v, fmt.Errorf("view.sort: %w", err)
		}
		v.Sort = key
		v.Dir = filter.DefaultDirection(key)
	}
	if vc.Dir != "" {
		dir, err := filter.ParseDirection(vc.Dir)
		if err != nil {
			return v, fmt.Errorf("view.dir: %w", err)
		}
		v.Dir = dir
	}
	return v, nil
}

// Close flushes the event log and closes the archive.
func (rt *Runtime) Close() {
	if rt.Events != nil {
		rt.Events.Emit(otel.Event{Kind: otel.KindShutdown, Comp: "main"})
		rt.Events.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i].Close()
	}
	rt.closers = nil
}
