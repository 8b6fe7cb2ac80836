package server

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/render"
	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"
)

// endingSoon returns up to limit open items with an end time, soonest first.
func endingSoon(items []auction.Item, limit int) []auction.Item {
	out := make([]auction.Item, 0, len(items))
	for _, item := range items {
		if item.Active() && item.EndsAt != nil {
			out = append(out, item)
		}
	}
	filter.Sort(out, filter.SortEnds, filter.Asc)
	if len(out) > limit {
		out = out[:limit]
	}
	return slices.Clip(out)
}

// buildFeed turns a snapshot into a feed of items ending soon.
func buildFeed(snap *coord.Snapshot, siteURL, auctionID string, limit int) *feeds.Feed {
	link := strings.TrimRight(siteURL, "/")
	if auctionID != "" {
		link += "/auctions/" + auctionID
	}

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Auction %s | Ending soon", auctionID),
		Link:        &feeds.Link{Href: link, Rel: "alternate", Type: "text/html"},
		Description: "Open lots ordered by closing time",
		Created:     snap.UpdatedAt,
		Updated:     snap.UpdatedAt,
	}

	for _, item := range endingSoon(snap.Items, limit) {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          item.ID,
			Title:       fmt.Sprintf("%s – %s", item.Title, render.Money(item.CurrentPrice)),
			Link:        &feeds.Link{Href: item.Link},
			Description: feedDescription(item, snap.UpdatedAt),
			Created:     snap.UpdatedAt,
		})
	}
	return feed
}

func feedDescription(item auction.Item, now time.Time) string {
	parts := []string{}
	if item.Lot != "" {
		parts = append(parts, "Lot "+item.Lot)
	}
	parts = append(parts, fmt.Sprintf("%d bids", item.BidsCount))
	parts = append(parts, "current "+render.Money(item.CurrentPrice))
	parts = append(parts, "ends "+render.Ends(item.EndsAt, now))
	desc := strings.Join(parts, " · ")
	if item.Description != "" {
		desc += "\n\n" + item.Description
	}
	return desc
}

// handleFeed serves /feed/{atom|rss|json}.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no data loaded yet", "")
		return
	}
	feed := buildFeed(snap, s.opts.SiteURL, s.opts.AuctionID, s.opts.FeedLimit)

	var (
		body        string
		err         error
		contentType string
	)
	switch mux.Vars(r)["type"] {
	case "atom":
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	case "rss":
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	default:
		body, err = feed.ToJSON()
		contentType = "application/feed+json"
	}
	if err != nil {
		s.log.Error("feed", "error", err)
		writeError(w, http.StatusInternalServerError, "feed rendering failed", "")
		return
	}

	w.Header().Set("Content-Type", contentType)
	fmt.Fprint(w, body)
}
