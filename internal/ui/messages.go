// Package ui provides the Bubble Tea TUI for the auction dashboard.
package ui

import (
	"time"

	"github.com/billy398/auction-dashboard/internal/coord"
)

// RefreshStarted is sent when a refresh cycle begins, manual or timed.
type RefreshStarted struct {
	Auto bool
}

// RefreshFinished carries the outcome of one refresh cycle.
type RefreshFinished struct {
	Result coord.Result
	Auto   bool
}

// AutoConfigured reports the auto-refresh state after the timer re-armed.
// Interval is the effective (clamped) period.
type AutoConfigured struct {
	Enabled  bool
	Interval time.Duration
}
