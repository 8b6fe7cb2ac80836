package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/render"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing refresh counts and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	counts := ring.Counts()
	recent := ring.Last(20)

	// --- Counts section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Refresh Stats"))
	lines = append(lines, fmt.Sprintf("  Refreshes:  %d started, %d complete, %d errors",
		counts[otel.KindRefreshStart], counts[otel.KindRefreshComplete], counts[otel.KindRefreshError]))
	lines = append(lines, fmt.Sprintf("  Pages:      %d fetched, %d errors",
		counts[otel.KindPageFetch], counts[otel.KindPageError]))
	lines = append(lines, fmt.Sprintf("  Auto:       %d armed, %d ticks",
		counts[otel.KindAutoArm], counts[otel.KindAutoTick]))
	lines = append(lines, fmt.Sprintf("  Archive:    %d errors", counts[otel.KindArchiveError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-18s", ageStr, string(e.Kind))
		if e.Page > 0 {
			line += fmt.Sprintf("  p%d", e.Page)
		}
		if e.Count > 0 {
			line += fmt.Sprintf("  n=%d", e.Count)
		}
		if e.Msg != "" {
			line += "  " + render.Truncate(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + render.Truncate(e.Err, 30)
		}
		if e.RefreshID != "" {
			rid := e.RefreshID
			if len(rid) > 8 {
				rid = rid[:8]
			}
			line += fmt.Sprintf("  rid:%s", rid)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
