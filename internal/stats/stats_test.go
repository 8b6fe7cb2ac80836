package stats

import (
	"testing"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarize(t *testing.T) {
	items := []auction.Item{
		{ID: "1", CurrentPrice: price("10"), BidsCount: 2},
		{ID: "2", CurrentPrice: price("0"), BidsCount: 0},
		{ID: "3", CurrentPrice: price("5"), BidsCount: 1},
	}

	s := Summarize(items)

	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.WithBids != 2 {
		t.Errorf("WithBids = %d, want 2", s.WithBids)
	}
	if !s.Total.Equal(price("15")) {
		t.Errorf("Total = %s, want 15", s.Total)
	}
	if !s.Average.Equal(price("7.5")) {
		t.Errorf("Average = %s, want 7.5", s.Average)
	}
	if !s.Highest.Equal(price("10")) {
		t.Errorf("Highest = %s, want 10", s.Highest)
	}
	if s.HighestItem == nil || s.HighestItem.ID != "1" {
		t.Errorf("HighestItem = %+v, want item 1", s.HighestItem)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Count != 0 || s.WithBids != 0 {
		t.Errorf("expected zero counts, got %+v", s)
	}
	if !s.Average.IsZero() || !s.Total.IsZero() {
		t.Errorf("expected zero amounts, got avg=%s total=%s", s.Average, s.Total)
	}
	if s.HighestItem != nil || s.SoonestEnding != nil {
		t.Error("expected no highest item and no soonest ending")
	}
}

func TestSummarizeHighestTies(t *testing.T) {
	items := []auction.Item{
		{ID: "a", CurrentPrice: price("20"), BidsCount: 1},
		{ID: "b", CurrentPrice: price("20"), BidsCount: 3},
	}
	if got := Summarize(items).HighestItem; got == nil || got.ID != "a" {
		t.Errorf("expected first of tied items, got %+v", got)
	}
}

func TestSummarizeZeroPricedBids(t *testing.T) {
	items := []auction.Item{{ID: "a", BidsCount: 4}}
	s := Summarize(items)
	if s.WithBids != 1 {
		t.Errorf("WithBids = %d, want 1", s.WithBids)
	}
	if s.HighestItem != nil {
		t.Errorf("expected no highest item when every price is 0, got %+v", s.HighestItem)
	}
}

// Items without bids never contribute to the total, whatever their price.
func TestSummarizeIgnoresPriceWithoutBids(t *testing.T) {
	items := []auction.Item{{ID: "a", CurrentPrice: price("99"), BidsCount: 0}}
	s := Summarize(items)
	if !s.Total.IsZero() || s.HighestItem != nil {
		t.Errorf("expected item without bids to be ignored, got %+v", s)
	}
}

func TestSoonestEnding(t *testing.T) {
	base := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time { t := base.Add(time.Duration(h) * time.Hour); return &t }

	items := []auction.Item{
		{ID: "closed", Status: auction.StatusClosed, EndsAt: at(1)},
		{ID: "later", Status: auction.StatusOpen, EndsAt: at(5)},
		{ID: "none", Status: auction.StatusOpen},
		{ID: "soon", Status: auction.StatusPaused, EndsAt: at(2)},
	}

	got := Summarize(items).SoonestEnding
	if got == nil || !got.Equal(*at(2)) {
		t.Errorf("SoonestEnding = %v, want %v", got, at(2))
	}

	if Summarize(items[:1]).SoonestEnding != nil {
		t.Error("expected nil when only closed items have end times")
	}
}
