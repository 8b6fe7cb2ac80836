package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/billy398/auction-dashboard/internal/config"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/api/auctions/777/items") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `{"data":[]}`)
			return
		}
		fmt.Fprint(w, `{"data":[
			{"id":1,"name":"Lamp","started":true,"bid_count":1,"last_bid":{"amount":"12.50"}},
			{"id":2,"name":"Desk","started":true}
		]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Upstream.BaseURL = baseURL
	cfg.Upstream.AuctionID = "777"
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive.db")
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upstream.BaseURL = "not a url"

	_, err := New(cfg, Options{})
	assert.Error(t, err)
}

func TestRefreshWithoutArchive(t *testing.T) {
	cfg := testConfig(t, listing(t).URL)

	rt, err := New(cfg, Options{RingSize: 32})
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Archive)

	res := rt.Coordinator.Refresh(context.Background())
	require.True(t, res.OK(), "refresh failed: %v", res.Err)
	assert.Len(t, res.Snapshot.Items, 2)

	// the ring is fed by the event log's drain goroutine
	assert.Eventually(t, func() bool {
		counts := rt.Ring.Counts()
		return counts[otel.KindStartup] == 1 && counts[otel.KindRefreshComplete] == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRefreshArchivesSnapshot(t *testing.T) {
	cfg := testConfig(t, listing(t).URL)
	cfg.Archive.Enabled = true

	rt, err := New(cfg, Options{})
	require.NoError(t, err)
	defer rt.Close()
	require.NotNil(t, rt.Archive)

	res := rt.Coordinator.Refresh(context.Background())
	require.True(t, res.OK(), "refresh failed: %v", res.Err)

	obs, err := rt.Archive.History("1", 10)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "12.5", obs[0].Price.String())
	assert.Equal(t, res.RefreshID, obs[0].RefreshID)
}

func TestEventLogFile(t *testing.T) {
	cfg := testConfig(t, listing(t).URL)
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")

	rt, err := New(cfg, Options{EventLogPath: path})
	require.NoError(t, err)
	rt.Coordinator.Refresh(context.Background())
	rt.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"sys.startup"`)
	assert.Contains(t, string(data), `"kind":"refresh.complete"`)
	assert.Contains(t, string(data), `"kind":"sys.shutdown"`)
}

func TestViewFromConfig(t *testing.T) {
	v, err := ViewFromConfig(config.ViewConfig{})
	require.NoError(t, err)
	assert.Equal(t, filter.DefaultViewState(), v)

	v, err = ViewFromConfig(config.ViewConfig{Sort: "price", OnlyWithBids: true})
	require.NoError(t, err)
	assert.Equal(t, filter.SortPrice, v.Sort)
	assert.Equal(t, filter.Desc, v.Dir)
	assert.True(t, v.OnlyWithBids)

	v, err = ViewFromConfig(config.ViewConfig{Sort: "price", Dir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, filter.Asc, v.Dir)

	_, err = ViewFromConfig(config.ViewConfig{Sort: "colour"})
	assert.Error(t, err)
	_, err = ViewFromConfig(config.ViewConfig{Dir: "up"})
	assert.Error(t, err)
}
