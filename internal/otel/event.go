// Package otel records structured events for auctionwatch.
//
// Events are serialized as JSONL lines by a Logger that writes from a
// background goroutine. An optional RingBuffer keeps the most recent events
// in memory for the TUI debug overlay.
package otel

import (
	"context"
	"encoding/json"
	"time"
)

// Level is event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind is a dot-delimited "<subsystem>.<action>" name.
type EventKind string

const (
	// Refresh cycle
	KindRefreshStart    EventKind = "refresh.start"
	KindRefreshComplete EventKind = "refresh.complete"
	KindRefreshError    EventKind = "refresh.error"
	KindRecordSample    EventKind = "record.sample"

	// Paginator
	KindPageFetch EventKind = "page.fetch"
	KindPageError EventKind = "page.error"

	// Auto-refresh timer
	KindAutoArm  EventKind = "auto.arm"
	KindAutoTick EventKind = "auto.tick"

	// HTTP surface
	KindHTTPRequest EventKind = "http.request"

	// Archive
	KindArchiveError EventKind = "archive.error"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is one record. Only Kind is required; Time is filled in on Emit.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "coord", "fetch", "ui", "server", "main"
	SessionID string         `json:"session_id,omitempty"`
	RefreshID string         `json:"rid,omitempty"` // correlates one refresh cycle
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Page      int            `json:"page,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status
	URL       string         `json:"url,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as fractional milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}

type refreshIDKey struct{}

// WithRefreshID tags ctx so events emitted below it share one refresh id.
func WithRefreshID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, refreshIDKey{}, id)
}

// RefreshID returns the id set by WithRefreshID, or "".
func RefreshID(ctx context.Context) string {
	id, _ := ctx.Value(refreshIDKey{}).(string)
	return id
}
