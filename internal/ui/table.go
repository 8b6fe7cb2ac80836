package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/render"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// tableMode selects what the table body shows.
type tableMode int

const (
	modeData tableMode = iota
	modeLoading
	modeEmpty
	modeFailed
)

// tableChrome is the number of lines the table spends on its frame and
// header: top border, header, header separator and bottom border.
const tableChrome = 4

// RenderTable renders the visible window of rows. Outside modeData the body
// is a single message row.
func RenderTable(rows []auction.Item, v filter.ViewState, mode tableMode, cursor, width, height int) string {
	visible := height - tableChrome
	if visible < 1 {
		visible = 1
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(TableBorder).
		Headers(render.Headers(v)...)
	if width > 0 {
		t = t.Width(width)
	}

	if mode != modeData {
		msg := map[tableMode]string{
			modeLoading: render.LoadingText,
			modeEmpty:   render.EmptyText,
			modeFailed:  render.FailedText,
		}[mode]
		cells := make([]string, len(render.Columns))
		cells[0] = msg
		return t.Row(cells...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return HeaderCell
				}
				return MessageRow
			}).
			String()
	}

	offset := calcScrollOffset(cursor, len(rows), visible)
	end := min(offset+visible, len(rows))
	window := rows[offset:end]

	return t.Rows(render.Rows(window)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCell
			}
			item := window[row]
			var s lipgloss.Style
			switch {
			case offset+row == cursor:
				s = SelectedRow
			case item.Status == auction.StatusClosed:
				s = ClosedRow
			default:
				s = NormalRow
			}
			if col == statusColumn && offset+row != cursor {
				s = s.Foreground(statusColor(item.Status))
			}
			return s
		}).
		String()
}

var statusColumn = columnIndex(filter.SortStatus)

func columnIndex(key filter.SortKey) int {
	for i, c := range render.Columns {
		if c.Sort == key {
			return i
		}
	}
	return -1
}

// calcScrollOffset returns the first visible row so that cursor stays
// inside a window of the given height.
func calcScrollOffset(cursor, total, visible int) int {
	if total == 0 || cursor < 0 || visible < 1 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= visible {
		return cursor - visible + 1
	}
	return 0
}

// RenderKPIs renders the aggregate strip over the full dataset.
func RenderKPIs(snap *coord.Snapshot, width int, now time.Time) string {
	title := Title.Render("Auction Watch")
	if snap == nil {
		return title
	}
	s := snap.Stats

	kv := func(label, value string) string {
		return KPILabel.Render(label+" ") + KPIValue.Render(value)
	}
	highest := render.Money(s.Highest)
	if s.HighestItem != nil {
		highest += " (" + render.Truncate(s.HighestItem.Title, 24) + ")"
	}
	parts := []string{
		kv("Items", render.Count(s.Count)),
		kv("With bids", render.Count(s.WithBids)),
		kv("Total", render.Money(s.Total)),
		kv("Avg", render.Money(s.Average)),
		kv("Highest", highest),
		kv("Ends soonest", render.Ends(s.SoonestEnding, now)),
		kv("Updated", snap.UpdatedAt.Local().Format("15:04:05")),
	}

	line := title + " " + strings.Join(parts, KPILabel.Render(" · "))
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}

// RenderSearchBar renders the search input with the filtered count.
func RenderSearchBar(input string, filtered, total, width int) string {
	count := SearchBarCount.Render(fmt.Sprintf(" %d/%d", filtered, total))
	content := input + count
	padding := width - lipgloss.Width(content) - 2
	if padding < 0 {
		padding = 0
	}
	return SearchBar.Width(width).Render(content + strings.Repeat(" ", padding))
}

// RenderDetail renders the selected item's link and description.
func RenderDetail(item auction.Item, width int) string {
	line := item.Link
	if item.Description != "" {
		line += "  " + item.Description
	}
	if hint := bidHint(item); hint != "" {
		line = hint + "  " + line
	}
	return DetailStyle.Render(render.Truncate(line, max(width-2, 1)))
}

func bidHint(item auction.Item) string {
	switch {
	case item.NextMinBid != nil:
		return "next bid " + render.OptionalMoney(item.NextMinBid)
	case item.StartBid != nil && !item.HasBids():
		return "starts at " + render.OptionalMoney(item.StartBid)
	}
	return ""
}

// RenderStatusBar renders the bottom status bar with position, auto-refresh
// state, the last note and key hints.
func RenderStatusBar(cursor, total, width int, loading string, auto bool, interval time.Duration, note string) string {
	var position string
	switch {
	case loading != "":
		position = " " + loading + " "
	case total == 0:
		position = " 0/0 "
	default:
		position = fmt.Sprintf(" %d/%d ", cursor+1, total)
	}

	autoText := "auto off"
	if auto {
		autoText = fmt.Sprintf("auto %ds", int(interval/time.Second))
	}
	left := position + StatusBarText.Render(autoText)
	if note != "" {
		left += "  " + StatusBarText.Render(note)
	}

	keys := []string{
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("?") + StatusBarText.Render(":help"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
