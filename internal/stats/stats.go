// Package stats computes dashboard aggregates over a full dataset.
package stats

import (
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/shopspring/decimal"
)

// Stats summarizes a dataset. Filters never apply here; the numbers always
// describe everything that was loaded.
type Stats struct {
	Count    int             `json:"count"`
	WithBids int             `json:"withBids"`
	Total    decimal.Decimal `json:"total"`
	Average  decimal.Decimal `json:"average"`
	Highest  decimal.Decimal `json:"highest"`

	// HighestItem is nil when no item with bids has a positive price.
	HighestItem *auction.Item `json:"highestItem,omitempty"`

	// SoonestEnding is the earliest end time among items that are not
	// closed, or nil if none has one.
	SoonestEnding *time.Time `json:"soonestEnding,omitempty"`
}

// Summarize computes Stats for items. The first item with the strictly
// greatest price wins ties for HighestItem.
func Summarize(items []auction.Item) Stats {
	s := Stats{Count: len(items)}

	for i := range items {
		it := &items[i]
		if it.HasBids() {
			s.WithBids++
			s.Total = s.Total.Add(it.CurrentPrice)
			if it.CurrentPrice.GreaterThan(s.Highest) {
				s.Highest = it.CurrentPrice
				s.HighestItem = it
			}
		}
		if it.Active() && it.EndsAt != nil {
			if s.SoonestEnding == nil || it.EndsAt.Before(*s.SoonestEnding) {
				t := *it.EndsAt
				s.SoonestEnding = &t
			}
		}
	}

	if s.WithBids > 0 {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.WithBids)))
	}
	if s.HighestItem != nil {
		hi := *s.HighestItem
		s.HighestItem = &hi
	}
	return s
}
