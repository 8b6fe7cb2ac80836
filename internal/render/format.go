// Package render turns items and stats into plain text: money, times and
// the fixed-column listing table shared by the TUI and the CLI.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	// LoadingText fills the table while a refresh runs.
	LoadingText = "Loading…"
	// EmptyText means the view filtered everything out.
	EmptyText = "No items match your filters."
	// FailedText heads the error row after a failed refresh.
	FailedText = "Failed to load items."

	noTime = "–"
)

// Money formats an amount as US dollars with two decimals.
func Money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = humanize.Comma(n)
	}
	return sign + "$" + whole + "." + frac
}

// OptionalMoney formats a bid hint, "" when absent.
func OptionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return Money(*d)
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// When formats a timestamp in local time, or "–" when absent.
func When(t *time.Time) string {
	if t == nil {
		return noTime
	}
	return t.Local().Format("Jan 2 15:04")
}

// Relative describes t against now, e.g. "3 hours from now".
func Relative(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}

// Ends combines When and Relative: "Oct 18 20:00 (3 hours from now)".
func Ends(t *time.Time, now time.Time) string {
	if t == nil {
		return noTime
	}
	return fmt.Sprintf("%s (%s)", When(t), Relative(t, now))
}

// Loaded is the note shown after a successful refresh.
func Loaded(n int) string {
	return fmt.Sprintf("%s items loaded.", Count(n))
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
