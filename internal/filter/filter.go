// Package filter provides pure filter and sort functions for auction items.
// All functions are simple: []Item in, []Item out. Inputs are never mutated.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/billy398/auction-dashboard/internal/auction"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortTitle  SortKey = "title"
	SortLot    SortKey = "lot"
	SortPrice  SortKey = "price"
	SortBids   SortKey = "bids"
	SortBidder SortKey = "bidder"
	SortEnds   SortKey = "ends"
	SortStatus SortKey = "status"
)

// SortKeys lists the keys in column order.
var SortKeys = []SortKey{SortTitle, SortLot, SortPrice, SortBids, SortBidder, SortEnds, SortStatus}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// ViewState is what one view of the dataset has selected. It is a value;
// changing it never touches the dataset.
type ViewState struct {
	Search       string    `json:"search"`
	OnlyWithBids bool      `json:"onlyWithBids"`
	Sort         SortKey   `json:"sort"`
	Dir          Direction `json:"dir"`
}

// DefaultViewState sorts by ending time, soonest first.
func DefaultViewState() ViewState {
	return ViewState{Sort: SortEnds, Dir: Asc}
}

// Toggle selects key. Selecting the current key flips the direction; a new
// key starts ascending for text columns and descending for the rest.
func (v ViewState) Toggle(key SortKey) ViewState {
	if v.Sort == key {
		v.Dir = v.Dir.Flip()
		return v
	}
	v.Sort = key
	v.Dir = DefaultDirection(key)
	return v
}

// DefaultDirection is the direction a column starts in when first selected.
func DefaultDirection(key SortKey) Direction {
	switch key {
	case SortTitle, SortBidder, SortStatus:
		return Asc
	default:
		return Desc
	}
}

// ParseSortKey validates a sort key from a flag or query parameter.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ParseDirection validates a direction from a flag or query parameter.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// View applies v to items: filter, then stable sort.
func View(items []auction.Item, v ViewState) []auction.Item {
	result := BySearch(items, v.Search)
	if v.OnlyWithBids {
		result = WithBids(result)
	}
	Sort(result, v.Sort, v.Dir)
	return result
}

// WithBids keeps items whose current price is positive.
func WithBids(items []auction.Item) []auction.Item {
	result := make([]auction.Item, 0, len(items))
	for _, item := range items {
		if item.CurrentPrice.IsPositive() {
			result = append(result, item)
		}
	}
	return result
}

// BySearch keeps items whose title, bidder or lot contains the query,
// case-insensitively. A blank query keeps everything.
func BySearch(items []auction.Item, query string) []auction.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]auction.Item, 0, len(items))
	for _, item := range items {
		if q == "" || strings.Contains(haystack(item), q) {
			result = append(result, item)
		}
	}
	return result
}

func haystack(item auction.Item) string {
	return strings.ToLower(item.Title + " " + item.Bidder + " " + item.Lot)
}

// Sort orders items in place by key. The sort is stable, so equal keys keep
// their incoming order. Unknown keys leave the order untouched.
func Sort(items []auction.Item, key SortKey, dir Direction) {
	compare := comparator(key)
	if compare == nil {
		return
	}
	slices.SortStableFunc(items, func(a, b auction.Item) int {
		if dir == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// comparator builds a fresh comparison for key. Collators are not safe for
// concurrent use, so each sort gets its own.
func comparator(key SortKey) func(a, b auction.Item) int {
	switch key {
	case SortTitle:
		c := collate.New(language.English)
		return func(a, b auction.Item) int { return c.CompareString(a.Title, b.Title) }
	case SortLot:
		c := collate.New(language.English, collate.Numeric)
		return func(a, b auction.Item) int { return c.CompareString(a.Lot, b.Lot) }
	case SortPrice:
		return func(a, b auction.Item) int { return a.CurrentPrice.Cmp(b.CurrentPrice) }
	case SortBids:
		return func(a, b auction.Item) int { return cmp.Compare(a.BidsCount, b.BidsCount) }
	case SortBidder:
		c := collate.New(language.English)
		return func(a, b auction.Item) int { return c.CompareString(a.Bidder, b.Bidder) }
	case SortEnds:
		return compareEnds
	case SortStatus:
		return func(a, b auction.Item) int { return strings.Compare(string(a.Status), string(b.Status)) }
	}
	return nil
}

// compareEnds treats a missing end time as later than any real one.
func compareEnds(a, b auction.Item) int {
	switch {
	case a.EndsAt == nil && b.EndsAt == nil:
		return 0
	case a.EndsAt == nil:
		return 1
	case b.EndsAt == nil:
		return -1
	}
	return a.EndsAt.Compare(*b.EndsAt)
}
