// Package store archives refresh snapshots in SQLite.
//
// The archive is write-mostly history: each successful refresh appends one
// observation per item. Nothing here is ever loaded back into the live
// dataset.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Observation is one item as seen by one refresh.
type Observation struct {
	RefreshID  string          `json:"refreshId"`
	CapturedAt time.Time       `json:"capturedAt"`
	ItemID     string          `json:"itemId"`
	Title      string          `json:"title"`
	Lot        string          `json:"lot,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Bids       int             `json:"bids"`
	Bidder     string          `json:"bidder,omitempty"`
	Status     auction.Status  `json:"status"`
	EndsAt     *time.Time      `json:"endsAt,omitempty"`
}

// Refresh summarizes one archived refresh.
type Refresh struct {
	ID         string
	CapturedAt time.Time
	ItemCount  int
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for file-based DBs.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS refreshes (
		id TEXT PRIMARY KEY,
		captured_at DATETIME NOT NULL,
		item_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS observations (
		refresh_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		title TEXT NOT NULL,
		lot TEXT,
		price TEXT NOT NULL,
		bids INTEGER NOT NULL,
		bidder TEXT,
		status TEXT NOT NULL,
		ends_at DATETIME,
		captured_at DATETIME NOT NULL,
		PRIMARY KEY (refresh_id, item_id)
	);

	CREATE INDEX IF NOT EXISTS idx_observations_item ON observations(item_id, captured_at);
	CREATE INDEX IF NOT EXISTS idx_refreshes_captured ON refreshes(captured_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
