package render

import (
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/stats"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Column is one fixed table column.
type Column struct {
	Title string
	Sort  filter.SortKey // "" when the column is not sortable
	Width int            // maximum cell width in runes
}

// Columns are the listing columns in display order.
var Columns = []Column{
	{Title: "Title", Sort: filter.SortTitle, Width: 36},
	{Title: "Lot", Sort: filter.SortLot, Width: 6},
	{Title: "Img", Width: 3},
	{Title: "Price", Sort: filter.SortPrice, Width: 12},
	{Title: "Bids", Sort: filter.SortBids, Width: 5},
	{Title: "Bidder", Sort: filter.SortBidder, Width: 16},
	{Title: "Ends", Sort: filter.SortEnds, Width: 12},
	{Title: "Status", Sort: filter.SortStatus, Width: 8},
	{Title: "Buy now", Width: 12},
}

// Headers returns column titles with an arrow on the active sort column.
func Headers(v filter.ViewState) []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Title
		if c.Sort != "" && c.Sort == v.Sort {
			if v.Dir == filter.Desc {
				out[i] += " ▼"
			} else {
				out[i] += " ▲"
			}
		}
	}
	return out
}

// Row returns the cells for one item, truncated to column widths.
func Row(item auction.Item) []string {
	img := ""
	if item.Image != "" {
		img = "▣"
	}
	buyNow := ""
	if item.BuyNow.IsPositive() {
		buyNow = Money(item.BuyNow)
	}
	cells := []string{
		item.Title,
		item.Lot,
		img,
		Money(item.CurrentPrice),
		Count(item.BidsCount),
		item.Bidder,
		When(item.EndsAt),
		item.Status.Label(),
		buyNow,
	}
	for i := range cells {
		cells[i] = Truncate(cells[i], Columns[i].Width)
	}
	return cells
}

// Rows maps Row over items.
func Rows(items []auction.Item) [][]string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = Row(item)
	}
	return rows
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// numeric columns are right-aligned.
var numeric = map[int]bool{3: true, 4: true, 8: true}

// Table renders items as a bordered plain table for non-interactive output.
// An empty view renders the header followed by EmptyText.
func Table(items []auction.Item, v filter.ViewState) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(Headers(v)...).
		Rows(Rows(items)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})

	out := t.String()
	if len(items) == 0 {
		out += "\n" + EmptyText
	}
	return out
}

// Summary renders the aggregate block shown above the table.
func Summary(s stats.Stats, updated, now time.Time) string {
	var b strings.Builder

	b.WriteString("Items: " + Count(s.Count))
	b.WriteString("   With bids: " + Count(s.WithBids))
	b.WriteString("   Total: " + Money(s.Total))
	b.WriteString("   Avg: " + Money(s.Average))
	b.WriteString("\n")

	b.WriteString("Highest: " + Money(s.Highest))
	if s.HighestItem != nil {
		b.WriteString(" (" + s.HighestItem.Title + ")")
	}
	b.WriteString("   Soonest ending: " + Ends(s.SoonestEnding, now))
	b.WriteString("\n")

	b.WriteString("Updated: " + updated.Local().Format("15:04:05"))
	return b.String()
}
