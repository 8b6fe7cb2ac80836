package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
)

// eventLine is one decoded line of the event log with its original bytes.
type eventLine struct {
	ev  otel.Event
	raw []byte
}

var levelRank = map[otel.Level]int{
	otel.LevelDebug: 0,
	otel.LevelInfo:  1,
	otel.LevelWarn:  2,
	otel.LevelError: 3,
}

// eventFilter selects events. Zero fields match everything.
type eventFilter struct {
	kind     string // kind prefix, e.g. "page"
	comp     string
	rid      string // refresh id prefix
	minLevel otel.Level
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.rid != "" && !strings.HasPrefix(ev.RefreshID, f.rid) {
		return false
	}
	if f.minLevel != "" && levelRank[ev.Level] < levelRank[f.minLevel] {
		return false
	}
	return true
}

// decodeLine parses one JSONL line. Blank and malformed lines report false.
func decodeLine(b []byte) (eventLine, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return eventLine{}, false
	}
	var ev otel.Event
	if err := json.Unmarshal(b, &ev); err != nil {
		return eventLine{}, false
	}
	if ev.Level == "" {
		ev.Level = otel.LevelInfo
	}
	return eventLine{ev: ev, raw: bytes.Clone(b)}, true
}

// readEvents decodes every matching line of r and keeps the last n.
// n <= 0 keeps all of them.
func readEvents(r io.Reader, f eventFilter, n int) ([]eventLine, error) {
	br := bufio.NewReader(r)
	var out []eventLine
	for {
		b, err := br.ReadBytes('\n')
		if line, ok := decodeLine(b); ok && f.match(line.ev) {
			out = append(out, line)
			if n > 0 && len(out) > 2*n {
				out = append(out[:0], out[len(out)-n:]...)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

// formatEvent renders one event on a single line.
func formatEvent(ev otel.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %-6s %-16s",
		ev.Time.Local().Format("15:04:05.000"), strings.ToUpper(string(ev.Level)), ev.Comp, ev.Kind)
	if ev.RefreshID != "" {
		fmt.Fprintf(&b, " %s", shortID(ev.RefreshID))
	}
	if ev.Page > 0 {
		fmt.Fprintf(&b, " page %d", ev.Page)
	}
	if ev.Count > 0 {
		fmt.Fprintf(&b, " %d records", ev.Count)
	}
	if ev.Status > 0 {
		fmt.Fprintf(&b, " HTTP %d", ev.Status)
	}
	if ev.DurMs > 0 {
		fmt.Fprintf(&b, " %s", formatDur(ev.DurMs))
	}
	if ev.URL != "" {
		b.WriteString(" " + ev.URL)
	}
	if ev.Msg != "" {
		b.WriteString(": " + ev.Msg)
	}
	if ev.Err != "" {
		b.WriteString(" error: " + ev.Err)
	}
	return b.String()
}

// refreshRun is one refresh cycle rebuilt from its events.
type refreshRun struct {
	ID      string
	Started time.Time
	Pages   int // pages fetched successfully
	Records int // raw records across those pages
	Items   int // items published; set on success
	Dur     time.Duration
	Failed  bool
	Err     string
	Done    bool // a refresh.complete or refresh.error was seen
}

// Outcome is "ok", "failed" or "running".
func (r refreshRun) Outcome() string {
	switch {
	case r.Failed:
		return "failed"
	case r.Done:
		return "ok"
	default:
		return "running"
	}
}

// groupRefreshes folds events into refresh cycles, ordered by first
// appearance. Events without a refresh id are ignored.
func groupRefreshes(lines []eventLine) []refreshRun {
	index := make(map[string]int)
	var runs []refreshRun
	for _, l := range lines {
		ev := l.ev
		if ev.RefreshID == "" {
			continue
		}
		i, ok := index[ev.RefreshID]
		if !ok {
			i = len(runs)
			index[ev.RefreshID] = i
			runs = append(runs, refreshRun{ID: ev.RefreshID, Started: ev.Time})
		}
		run := &runs[i]
		switch ev.Kind {
		case otel.KindRefreshStart:
			run.Started = ev.Time
		case otel.KindPageFetch:
			run.Pages++
			run.Records += ev.Count
		case otel.KindPageError:
			run.Failed = true
			if run.Err == "" {
				run.Err = fmt.Sprintf("page %d: %s", ev.Page, ev.Err)
			}
		case otel.KindRefreshComplete:
			run.Done = true
			run.Items = ev.Count
			run.Dur = msDuration(ev.DurMs)
		case otel.KindRefreshError:
			run.Done = true
			run.Failed = true
			run.Dur = msDuration(ev.DurMs)
			if run.Err == "" {
				run.Err = ev.Err
			}
		}
	}
	return runs
}

func formatRun(r refreshRun) string {
	line := fmt.Sprintf("%s %s %-7s pages=%-3d records=%-5d items=%-5d %8s",
		r.Started.Local().Format("Jan 2 15:04:05"), shortID(r.ID), r.Outcome(),
		r.Pages, r.Records, r.Items, r.Dur.Round(time.Millisecond))
	if r.Err != "" {
		line += "  " + r.Err
	}
	return line
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func formatDur(ms float64) string {
	switch {
	case ms >= 1000:
		return fmt.Sprintf("%.2fs", ms/1000)
	case ms >= 10:
		return fmt.Sprintf("%.0fms", ms)
	default:
		return fmt.Sprintf("%.1fms", ms)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
