package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"
)

// fixtureRecords is what the fake listing returns on page 1. Later pages
// are empty.
func fixtureRecords(now time.Time) []string {
	ends := now.Add(3 * time.Hour).UTC().Format(time.RFC3339)
	return []string{
		fmt.Sprintf(`{"id":101,"name":"Brass Lamp","number":"7","bid_count":2,"started":true,
			"last_bid":{"amount":40,"bidder":{"display_name":"Ada"}},"end_at":%q}`, ends),
		fmt.Sprintf(`{"id":102,"name":"Oak Desk","number":"8","bid_count":0,"started":true,
			"start_bid":"25","end_at":%q}`, ends),
	}
}

// newFixtureUpstream serves the auction listing API for auction 1.
func newFixtureUpstream() *httptest.Server {
	records := fixtureRecords(time.Now())
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/auctions/1/items") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(records, ","))
	}))
}
