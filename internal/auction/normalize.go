package auction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// DefaultSiteURL is where item pages live when a record carries no url.
const DefaultSiteURL = "https://givebutter.com"

// Normalizer maps raw listing records to Items. The zero value is usable;
// SiteURL and AuctionID only matter when a record has no url of its own.
type Normalizer struct {
	SiteURL   string
	AuctionID string
}

// Normalize maps raw with the default site and no fallback auction.
func Normalize(raw RawRecord) Item {
	return Normalizer{}.Normalize(raw)
}

// Normalize builds an Item from raw. It is total: missing or malformed
// fields fall back to defaults and never produce an error.
func (n Normalizer) Normalize(raw RawRecord) Item {
	id := stringOf(raw["id"])
	lastBid := objectOf(raw["last_bid"])

	item := Item{
		ID:        id,
		Title:     "Item " + id,
		Lot:       stringOf(raw["number"]),
		Image:     firstPicture(raw["pictures"]),
		BidsCount: parseCount(raw["bid_count"]),
		Status:    statusOf(raw),
		EndsAt:    ParseEndsAt(raw["end_at"]),
		AuctionID: stringOf(raw["auction_id"]),
		Raw:       raw,
	}
	if truthy(raw["name"]) {
		item.Title = stringOf(raw["name"])
	}
	if amount := lastBid["amount"]; truthy(amount) {
		item.CurrentPrice = nonNegative(ParseAmount(amount))
	}
	if bidder := objectOf(lastBid["bidder"]); truthy(bidder["display_name"]) {
		item.Bidder = stringOf(bidder["display_name"])
	}
	if price := raw["final_price"]; truthy(price) {
		item.BuyNow = nonNegative(ParseAmount(price))
	}
	item.NextMinBid = optionalAmount(raw["minimum_bid"])
	item.StartBid = optionalAmount(raw["start_bid"])
	if desc, ok := raw["description"].(string); ok && desc != "" {
		item.Description = htmlText(desc)
	}
	item.Link = n.link(raw, id, item.AuctionID)
	return item
}

func (n Normalizer) link(raw RawRecord, id, auctionID string) string {
	if truthy(raw["url"]) {
		return stringOf(raw["url"])
	}
	if !truthy(raw["id"]) {
		return ""
	}
	if auctionID == "" {
		auctionID = n.AuctionID
	}
	if auctionID == "" {
		return ""
	}
	site := strings.TrimRight(n.SiteURL, "/")
	if site == "" {
		site = DefaultSiteURL
	}
	return fmt.Sprintf("%s/auctions/%s/items/%s", site, auctionID, id)
}

// statusOf applies the flags in order; each later rule overrides the
// earlier ones, so a not-yet-started item is pending whatever else it says.
func statusOf(raw RawRecord) Status {
	s := StatusOpen
	if truthy(raw["paused"]) {
		s = StatusPaused
	}
	if truthy(raw["ended"]) {
		s = StatusClosed
	}
	if !truthy(raw["started"]) {
		s = StatusPending
	}
	return s
}

// endLayouts are tried in order after the timestamp has been forced to UTC.
var endLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02Z07:00",
}

// ParseEndsAt reads an end timestamp such as "2025-10-18 20:00:00". The
// first space becomes a "T" and timestamps without a zone are taken as UTC.
// Unparseable input yields nil.
func ParseEndsAt(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.Replace(s, " ", "T", 1)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		u := t.UTC()
		return &u
	}
	if !strings.HasSuffix(s, "Z") {
		s += "Z"
	}
	for _, layout := range endLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

func optionalAmount(v any) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := ParseAmount(v)
	return &d
}

func firstPicture(v any) string {
	pics, ok := v.([]any)
	if !ok || len(pics) == 0 {
		return ""
	}
	pic := objectOf(pics[0])
	if !truthy(pic["url"]) {
		return ""
	}
	return stringOf(pic["url"])
}

// htmlText flattens an HTML fragment to a single line of text.
func htmlText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func objectOf(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case RawRecord:
		return m
	}
	return nil
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// truthy mirrors the loose truthiness the upstream payloads were designed
// around: zero numbers, empty strings, false and null are all "absent".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}
