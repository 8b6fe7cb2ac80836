package main

import (
	"strings"
	"testing"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"t":"2026-10-17T10:00:00Z","kind":"sys.startup","comp":"main"}
{"t":"2026-10-17T10:00:01Z","kind":"refresh.start","comp":"coord","rid":"aaaaaaaa-1111"}
{"t":"2026-10-17T10:00:01.2Z","kind":"page.fetch","comp":"fetch","rid":"aaaaaaaa-1111","page":1,"count":28,"dur_ms":120}
{"t":"2026-10-17T10:00:01.4Z","kind":"page.fetch","comp":"fetch","rid":"aaaaaaaa-1111","page":2,"count":3,"dur_ms":90}
{"t":"2026-10-17T10:00:01.5Z","kind":"page.fetch","comp":"fetch","rid":"aaaaaaaa-1111","page":3,"dur_ms":40}
{"t":"2026-10-17T10:00:01.6Z","kind":"refresh.complete","comp":"coord","rid":"aaaaaaaa-1111","count":31,"dur_ms":600}
not json
{"t":"2026-10-17T10:01:01Z","kind":"refresh.start","comp":"coord","rid":"bbbbbbbb-2222"}
{"t":"2026-10-17T10:01:01.3Z","level":"error","kind":"page.error","comp":"fetch","rid":"bbbbbbbb-2222","page":1,"status":502,"err":"HTTP 502 - Bad Gateway"}
{"t":"2026-10-17T10:01:01.3Z","level":"error","kind":"refresh.error","comp":"coord","rid":"bbbbbbbb-2222","dur_ms":300,"err":"page 1: HTTP 502 - Bad Gateway"}
{"t":"2026-10-17T10:02:01Z","kind":"refresh.start","comp":"coord","rid":"cccccccc-3333"}
`

func TestReadEventsFiltersAndTails(t *testing.T) {
	all, err := readEvents(strings.NewReader(sampleLog), eventFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, all, 10, "malformed line is skipped")
	assert.Equal(t, otel.LevelInfo, all[0].ev.Level, "missing level reads as info")

	pages, err := readEvents(strings.NewReader(sampleLog), eventFilter{kind: "page"}, 0)
	require.NoError(t, err)
	assert.Len(t, pages, 4)

	errs, err := readEvents(strings.NewReader(sampleLog), eventFilter{minLevel: otel.LevelWarn}, 0)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, otel.KindPageError, errs[0].ev.Kind)

	one, err := readEvents(strings.NewReader(sampleLog), eventFilter{rid: "bbbb"}, 0)
	require.NoError(t, err)
	assert.Len(t, one, 3)

	last, err := readEvents(strings.NewReader(sampleLog), eventFilter{comp: "coord"}, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "cccccccc-3333", last[1].ev.RefreshID)
	assert.Equal(t, otel.KindRefreshError, last[0].ev.Kind)
}

func TestReadEventsWithoutTrailingNewline(t *testing.T) {
	log := `{"kind":"sys.startup"}` + "\n" + `{"kind":"sys.shutdown"}`
	lines, err := readEvents(strings.NewReader(log), eventFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, otel.KindShutdown, lines[1].ev.Kind)
	assert.Equal(t, `{"kind":"sys.shutdown"}`, string(lines[1].raw))
}

func TestGroupRefreshes(t *testing.T) {
	lines, err := readEvents(strings.NewReader(sampleLog), eventFilter{}, 0)
	require.NoError(t, err)

	runs := groupRefreshes(lines)
	require.Len(t, runs, 3)

	ok := runs[0]
	assert.Equal(t, "ok", ok.Outcome())
	assert.Equal(t, 3, ok.Pages)
	assert.Equal(t, 31, ok.Records)
	assert.Equal(t, 31, ok.Items)
	assert.Equal(t, 600*time.Millisecond, ok.Dur)
	assert.Equal(t, time.Date(2026, 10, 17, 10, 0, 1, 0, time.UTC), ok.Started.UTC())

	failed := runs[1]
	assert.Equal(t, "failed", failed.Outcome())
	assert.Zero(t, failed.Pages)
	assert.Equal(t, "page 1: HTTP 502 - Bad Gateway", failed.Err)

	assert.Equal(t, "running", runs[2].Outcome())
	assert.Contains(t, formatRun(runs[1]), "bbbbbbbb failed")
}

func TestFormatEvent(t *testing.T) {
	ev := otel.Event{
		Time:      time.Date(2026, 10, 17, 10, 0, 0, 0, time.Local),
		Level:     otel.LevelError,
		Kind:      otel.KindPageError,
		Comp:      "fetch",
		RefreshID: "0123456789abcdef",
		Page:      4,
		Status:    404,
		DurMs:     1500,
		Err:       "HTTP 404 - Not Found",
	}
	got := formatEvent(ev)
	assert.True(t, strings.HasPrefix(got, "10:00:00.000 ERROR fetch  page.error"), got)
	for _, part := range []string{"01234567 ", "page 4", "HTTP 404", "1.50s", "error: HTTP 404 - Not Found"} {
		assert.Contains(t, got, part)
	}
	assert.NotContains(t, got, "89abcdef")
}
