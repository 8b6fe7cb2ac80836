package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// pageServer answers page n with sizes[n-1] records, or with the last size
// for pages past the end of sizes.
func pageServer(t *testing.T, sizes []int, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			t.Errorf("bad page parameter %q", r.URL.Query().Get("page"))
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
		n := sizes[len(sizes)-1]
		if page <= len(sizes) {
			n = sizes[page-1]
		}
		records := make([]string, n)
		for i := range records {
			records[i] = fmt.Sprintf(`{"id":%d,"name":"Item p%d-%d"}`, page*1000+i, page, i)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":[%s],"meta":{"page":%d}}`, strings.Join(records, ","), page)
	}))
}

func newTestFetcher(url string) *Fetcher {
	return NewFetcher(Options{ListingURL: url, Timeout: 5 * time.Second}, nil)
}

func TestFetchAllStopsOnEmptyPage(t *testing.T) {
	var requests atomic.Int32
	srv := pageServer(t, []int{28, 28, 0}, &requests)
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 56 {
		t.Errorf("expected 56 records, got %d", len(records))
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
	if records[0]["name"] != "Item p1-0" || records[55]["name"] != "Item p2-27" {
		t.Errorf("records out of page order: first=%v last=%v", records[0]["name"], records[55]["name"])
	}
}

func TestFetchAllPageCap(t *testing.T) {
	var requests atomic.Int32
	srv := pageServer(t, []int{28}, &requests)
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := requests.Load(); got != 50 {
		t.Errorf("expected 50 requests, got %d", got)
	}
	if len(records) != 1400 {
		t.Errorf("expected 1400 records, got %d", len(records))
	}
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	var requests atomic.Int32
	srv := pageServer(t, []int{0}, &requests)
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 0 || requests.Load() != 1 {
		t.Errorf("expected 0 records after 1 request, got %d after %d", len(records), requests.Load())
	}
}

func TestPageURL(t *testing.T) {
	f := NewFetcher(Options{ListingURL: "https://example.com/api/auctions/38788/items"}, nil)
	u := f.PageURL(3)

	for _, want := range []string{
		"filters=%7B%22categories%22%3A%5B%5D%2C%22status%22%3Anull%2C%22minPrice%22%3Anull%2C%22maxPrice%22%3Anull%2C%22allItems%22%3Afalse%7D",
		"sortBy=ending_soonest",
		"searchBy=&",
		"isFavorited=false",
		"isMyBids=false",
		"perPage=28",
		"page=3",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("PageURL missing %q: %s", want, u)
		}
	}
	if !strings.HasPrefix(u, "https://example.com/api/auctions/38788/items?") {
		t.Errorf("unexpected prefix: %s", u)
	}
}

func TestFetchPageSendsAcceptHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	if _, err := newTestFetcher(srv.URL).FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
}

func TestFetchAllHTTPError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 2 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(strings.Repeat("x", 500)))
			return
		}
		w.Write([]byte(`{"data":[{"id":1}]}`))
	}))
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if records != nil {
		t.Errorf("expected partial results to be discarded, got %d", len(records))
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.StatusCode != http.StatusBadGateway || fe.Page != 2 {
		t.Errorf("unexpected error fields: %+v", fe)
	}
	if len(fe.Body) != 300 {
		t.Errorf("body should be truncated to 300 chars, got %d", len(fe.Body))
	}
	if !strings.HasPrefix(err.Error(), "HTTP 502 – Bad Gateway\n") {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if requests.Load() != 2 {
		t.Errorf("expected no retries, got %d requests", requests.Load())
	}
}

func TestFetchPageNotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!doctype html><html><body>Sign in</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if !errors.Is(err, ErrUnexpectedBody) {
		t.Fatalf("expected ErrUnexpectedBody, got %v", err)
	}
	if Hint(err) == "" {
		t.Error("expected a configuration hint for a non-JSON body")
	}
}

func TestFetchPageOtherShapes(t *testing.T) {
	tests := []string{
		`[]`,
		`{"items":[{"id":1}]}`,
		`{"data":"nope"}`,
		`{"data":[1,"two",null]}`,
	}
	for _, body := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		records, err := newTestFetcher(srv.URL).FetchPage(context.Background(), 1)
		srv.Close()
		if err != nil {
			t.Errorf("%s: unexpected error %v", body, err)
		}
		if len(records) != 0 {
			t.Errorf("%s: expected 0 records, got %d", body, len(records))
		}
	}
}

func TestFetchAllContinuesPastNonObjectPage(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`{"data":[null,"x",7]}`))
		case "2":
			w.Write([]byte(`{"data":[{"id":2},"x"]}`))
		default:
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the one object record, got %d", len(records))
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 requests, got %d", got)
	}
}

func TestFetchAllTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestFetcher(url).FetchAll(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != 0 || fe.Err == nil {
		t.Errorf("expected transport cause, got %+v", fe)
	}
}

func TestFetchAllContextCancelled(t *testing.T) {
	var requests atomic.Int32
	srv := pageServer(t, []int{28}, &requests)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(srv.URL).FetchAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNumbersKeepPrecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.Write([]byte(`{"data":[{"id":12345678901234567,"last_bid":{"amount":1234.10}}]}`))
	}))
	defer srv.Close()

	records, err := newTestFetcher(srv.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(records[0]["id"]); got != "12345678901234567" {
		t.Errorf("id lost precision: %s", got)
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&FetchError{StatusCode: 403}, true},
		{&FetchError{StatusCode: 404}, true},
		{&FetchError{StatusCode: 500}, false},
		{fmt.Errorf("wrapped: %w", &FetchError{Err: ErrUnexpectedBody}), true},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := Hint(tt.err) != ""; got != tt.want {
			t.Errorf("Hint(%v) present = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPageInterval(t *testing.T) {
	var requests atomic.Int32
	srv := pageServer(t, []int{1, 1, 0}, &requests)
	defer srv.Close()

	f := NewFetcher(Options{ListingURL: srv.URL, PageInterval: 20 * time.Millisecond}, nil)
	start := time.Now()
	if _, err := f.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("expected pacing between 3 pages, took %v", elapsed)
	}
}
