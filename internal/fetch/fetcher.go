// Package fetch pages through the auction listing endpoint.
//
// Pages are requested strictly one after another. There are no retries; the
// first failure aborts the whole fetch and nothing partial is returned.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/otel"
	"golang.org/x/time/rate"
)

const (
	DefaultPerPage  = 28
	DefaultMaxPages = 50
	DefaultSortBy   = "ending_soonest"

	// DefaultFilters matches the listing page's own "all items" request.
	DefaultFilters = `{"categories":[],"status":null,"minPrice":null,"maxPrice":null,"allItems":false}`

	maxErrorBody = 300
	maxBodyBytes = 16 << 20
)

// Options configures a Fetcher. Zero values take the defaults above.
type Options struct {
	ListingURL   string // e.g. https://givebutter.com/api/auctions/38788/items
	PerPage      int
	MaxPages     int
	SortBy       string
	Filters      string
	Timeout      time.Duration
	PageInterval time.Duration // minimum spacing between page requests; 0 = none
	UserAgent    string
}

// Fetcher retrieves every page of the listing.
type Fetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	events  *otel.Logger
}

// NewFetcher creates a Fetcher. events may be nil.
func NewFetcher(opts Options, events *otel.Logger) *Fetcher {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.SortBy == "" {
		opts.SortBy = DefaultSortBy
	}
	if opts.Filters == "" {
		opts.Filters = DefaultFilters
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "auctionwatch/1.0"
	}

	limit := rate.Inf
	if opts.PageInterval > 0 {
		limit = rate.Every(opts.PageInterval)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		events:  events,
	}
}

// PageURL is the request URL for a 1-based page number.
func (f *Fetcher) PageURL(page int) string {
	q := []string{
		"filters=" + url.QueryEscape(f.opts.Filters),
		"sortBy=" + url.QueryEscape(f.opts.SortBy),
		"searchBy=",
		"isFavorited=false",
		"isMyBids=false",
		"perPage=" + strconv.Itoa(f.opts.PerPage),
		"page=" + strconv.Itoa(page),
	}
	sep := "?"
	if strings.Contains(f.opts.ListingURL, "?") {
		sep = "&"
	}
	return f.opts.ListingURL + sep + strings.Join(q, "&")
}

// FetchAll requests pages 1, 2, 3, ... until a page comes back empty or
// MaxPages requests have been made, and returns every record in page order.
// Any page failure discards what was collected and returns a *FetchError.
func (f *Fetcher) FetchAll(ctx context.Context) ([]auction.RawRecord, error) {
	var all []auction.RawRecord

	for page := 1; page <= f.opts.MaxPages; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Page: page, URL: f.PageURL(page), Err: err}
		}

		start := time.Now()
		records, entries, err := f.fetchPage(ctx, page)
		if err != nil {
			ev := otel.Event{Level: otel.LevelError, Kind: otel.KindPageError, Comp: "fetch",
				RefreshID: otel.RefreshID(ctx), Page: page, Dur: time.Since(start), Err: err.Error()}
			if fe, ok := err.(*FetchError); ok {
				ev.Status, ev.URL = fe.StatusCode, fe.URL
			}
			f.events.Emit(ev)
			return nil, err
		}
		f.events.Emit(otel.Event{Kind: otel.KindPageFetch, Comp: "fetch",
			RefreshID: otel.RefreshID(ctx), Page: page, Count: len(records), Dur: time.Since(start)})

		// A page of non-object entries still counts: only an empty data
		// array ends the listing.
		if entries == 0 {
			break
		}
		all = append(all, records...)
	}

	return all, nil
}

// FetchPage requests a single page.
func (f *Fetcher) FetchPage(ctx context.Context, page int) ([]auction.RawRecord, error) {
	records, _, err := f.fetchPage(ctx, page)
	return records, err
}

// fetchPage also reports how many entries the data array held before
// non-objects were dropped.
func (f *Fetcher) fetchPage(ctx context.Context, page int) ([]auction.RawRecord, int, error) {
	u := f.PageURL(page)
	fail := func(err error) error { return &FetchError{Page: page, URL: u, Err: err} }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fail(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fail(fmt.Errorf("failed to read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, &FetchError{
			Page:       page,
			URL:        u,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       truncate(string(body), maxErrorBody),
		}
	}

	records, entries, err := decodePage(body)
	if err != nil {
		return nil, 0, &FetchError{Page: page, URL: u, Body: truncate(string(body), maxErrorBody), Err: err}
	}
	return records, entries, nil
}

// decodePage extracts the data array and its length. Valid JSON of any
// other shape is an empty page; entries that are not objects are skipped.
func decodePage(body []byte) ([]auction.RawRecord, int, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnexpectedBody, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, 0, nil
	}
	data, ok := obj["data"].([]any)
	if !ok {
		return nil, 0, nil
	}

	records := make([]auction.RawRecord, 0, len(data))
	for _, entry := range data {
		if m, ok := entry.(map[string]any); ok {
			records = append(records, auction.RawRecord(m))
		}
	}
	return records, len(data), nil
}

func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// truncate shortens s to at most maxLen characters.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
