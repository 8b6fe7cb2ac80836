package store

import (
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/shopspring/decimal"
)

// SaveSnapshot records one refresh and an observation per item, in a single
// transaction. Items sharing an id within one refresh are stored once.
// Returns the number of observations written.
func (s *Store) SaveSnapshot(refreshID string, at time.Time, items []auction.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at = at.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO refreshes (id, captured_at, item_count) VALUES (?, ?, ?)`,
		refreshID, at, len(items),
	); err != nil {
		return 0, fmt.Errorf("insert refresh: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO observations (
			refresh_id, item_id, title, lot, price, bids, bidder, status, ends_at, captured_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	written := 0
	for _, item := range items {
		var ends sql.NullTime
		if item.EndsAt != nil {
			ends = sql.NullTime{Time: item.EndsAt.UTC(), Valid: true}
		}
		result, err := stmt.Exec(
			refreshID,
			item.ID,
			item.Title,
			item.Lot,
			item.CurrentPrice.String(),
			item.BidsCount,
			item.Bidder,
			string(item.Status),
			ends,
			at,
		)
		if err != nil {
			return 0, fmt.Errorf("insert observation %s: %w", item.ID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected > 0 {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// History returns the latest limit observations of one item, oldest first.
// Thread-safe: acquires read lock.
func (s *Store) History(itemID string, limit int) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT refresh_id, captured_at, item_id, title, lot, price, bids, bidder, status, ends_at
		FROM observations
		WHERE item_id = ?
		ORDER BY captured_at DESC, rowid DESC
		LIMIT ?
	`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			o      Observation
			price  string
			status string
			lot    sql.NullString
			bidder sql.NullString
			ends   sql.NullTime
		)
		if err := rows.Scan(&o.RefreshID, &o.CapturedAt, &o.ItemID, &o.Title, &lot,
			&price, &o.Bids, &bidder, &status, &ends); err != nil {
			return nil, err
		}
		o.Lot, o.Bidder = lot.String, bidder.String
		o.Status = auction.Status(status)
		o.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("observation %s/%s: bad price %q", o.RefreshID, o.ItemID, price)
		}
		if ends.Valid {
			t := ends.Time.UTC()
			o.EndsAt = &t
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.Reverse(out)
	return out, nil
}

// Refreshes lists the latest limit archived refreshes, newest first.
// Thread-safe: acquires read lock.
func (s *Store) Refreshes(limit int) ([]Refresh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, captured_at, item_count FROM refreshes
		ORDER BY captured_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Refresh
	for rows.Next() {
		var r Refresh
		if err := rows.Scan(&r.ID, &r.CapturedAt, &r.ItemCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes refreshes captured before cutoff along with their
// observations. Returns the number of refreshes removed.
// Thread-safe: acquires write lock.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff = cutoff.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM observations
		WHERE refresh_id IN (SELECT id FROM refreshes WHERE captured_at < ?)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("prune observations: %w", err)
	}
	result, err := tx.Exec(`DELETE FROM refreshes WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune refreshes: %w", err)
	}
	n, _ := result.RowsAffected()

	return n, tx.Commit()
}
