// Package auction holds the canonical auction item and the normalizer that
// builds it from the loosely typed records the listing endpoint returns.
package auction

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one listing entry as decoded from the upstream JSON, with
// numbers kept as json.Number. Its shape is not trusted.
type RawRecord map[string]any

// Status is the lifecycle state of an item.
type Status string

const (
	StatusPending Status = "pending"
	StatusOpen    Status = "open"
	StatusPaused  Status = "paused"
	StatusClosed  Status = "closed"
)

func (s Status) String() string { return string(s) }

// Label is the human form shown in status chips.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPaused:
		return "Paused"
	case StatusClosed:
		return "Closed"
	default:
		return "Open"
	}
}

// Item is the normalized view of one auction listing. Items are built once
// by a Normalizer and never mutated afterwards.
type Item struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Lot          string           `json:"lot,omitempty"`
	Image        string           `json:"image,omitempty"`
	CurrentPrice decimal.Decimal  `json:"currentPrice"`
	BidsCount    int              `json:"bidsCount"`
	Bidder       string           `json:"bidder,omitempty"`
	Status       Status           `json:"status"`
	EndsAt       *time.Time       `json:"endsAt,omitempty"`
	BuyNow       decimal.Decimal  `json:"buyNow"`
	NextMinBid   *decimal.Decimal `json:"nextMinBid,omitempty"`
	StartBid     *decimal.Decimal `json:"startBid,omitempty"`
	Link         string           `json:"link,omitempty"`
	Description  string           `json:"description,omitempty"`
	AuctionID    string           `json:"auctionId,omitempty"`

	// Raw is kept for debug dumps only.
	Raw RawRecord `json:"-"`
}

// HasBids reports whether anyone has bid on the item.
func (i Item) HasBids() bool { return i.BidsCount > 0 }

// Active reports whether the item can still end, i.e. it is not closed.
func (i Item) Active() bool { return i.Status != StatusClosed }
