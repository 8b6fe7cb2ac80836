package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func item(id, price string, bids int) auction.Item {
	return auction.Item{
		ID:           id,
		Title:        "Item " + id,
		Lot:          id,
		CurrentPrice: decimal.RequireFromString(price),
		BidsCount:    bids,
		Status:       auction.StatusOpen,
	}
}

func TestOpenCreatesTables(t *testing.T) {
	st := openTest(t)

	for _, table := range []string{"refreshes", "observations"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	st, err := Open(path)
	require.NoError(t, err)

	_, err = st.SaveSnapshot("r1", time.Now(), []auction.Item{item("1", "5", 1)})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.History("1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSaveSnapshotAndHistory(t *testing.T) {
	st := openTest(t)
	base := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)
	ends := base.Add(6 * time.Hour)

	first := item("42", "100", 1)
	first.EndsAt = &ends
	first.Bidder = "Ann"
	n, err := st.SaveSnapshot("r1", base, []auction.Item{first, item("7", "0", 0)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	second := item("42", "125.50", 2)
	second.Bidder = "Bob"
	_, err = st.SaveSnapshot("r2", base.Add(time.Minute), []auction.Item{second})
	require.NoError(t, err)

	history, err := st.History("42", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "r1", history[0].RefreshID)
	assert.True(t, history[0].Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Ann", history[0].Bidder)
	require.NotNil(t, history[0].EndsAt)
	assert.True(t, history[0].EndsAt.Equal(ends))

	assert.Equal(t, "r2", history[1].RefreshID)
	assert.True(t, history[1].Price.Equal(decimal.RequireFromString("125.5")))
	assert.Equal(t, 2, history[1].Bids)
	assert.Nil(t, history[1].EndsAt)
	assert.Equal(t, auction.StatusOpen, history[1].Status)
}

func TestHistoryLimitKeepsNewest(t *testing.T) {
	st := openTest(t)
	base := time.Date(2025, 10, 18, 12, 0, 0, 0, time.UTC)

	for i, price := range []string{"1", "2", "3"} {
		_, err := st.SaveSnapshot("r"+price, base.Add(time.Duration(i)*time.Minute), []auction.Item{item("x", price, 1)})
		require.NoError(t, err)
	}

	history, err := st.History("x", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r2", history[0].RefreshID)
	assert.Equal(t, "r3", history[1].RefreshID)
}

func TestSaveSnapshotDuplicateItemIDs(t *testing.T) {
	st := openTest(t)

	n, err := st.SaveSnapshot("r1", time.Now(), []auction.Item{item("1", "5", 1), item("1", "6", 2)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveSnapshotDuplicateRefresh(t *testing.T) {
	st := openTest(t)

	_, err := st.SaveSnapshot("r1", time.Now(), nil)
	require.NoError(t, err)
	_, err = st.SaveSnapshot("r1", time.Now(), nil)
	assert.Error(t, err)
}

func TestRefreshesAndPrune(t *testing.T) {
	st := openTest(t)
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	_, err := st.SaveSnapshot("old", old, []auction.Item{item("1", "5", 1)})
	require.NoError(t, err)
	_, err = st.SaveSnapshot("new", recent, []auction.Item{item("1", "6", 2), item("2", "1", 1)})
	require.NoError(t, err)

	refreshes, err := st.Refreshes(10)
	require.NoError(t, err)
	require.Len(t, refreshes, 2)
	assert.Equal(t, "new", refreshes[0].ID)
	assert.Equal(t, 2, refreshes[0].ItemCount)

	removed, err := st.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	history, err := st.History("1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "new", history[0].RefreshID)
}

func TestHistoryUnknownItem(t *testing.T) {
	st := openTest(t)
	history, err := st.History("missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
