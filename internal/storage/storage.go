// Package storage provides SQLite-backed persistence for last-known currency
// conversion factors, the third tier of the conversion fallback chain.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FXStore wraps a SQLite database holding the most recent successfully
// fetched factor per currency pair. Rows are upserted on every live fetch and
// never deleted.
type FXStore struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath. An empty dbPath defaults to
// $TMPDIR/ratewatch/fx.db; ":memory:" is supported for tests.
func Open(dbPath string) (*FXStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "ratewatch", "fx.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &FXStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *FXStore) Close() error {
	return s.db.Close()
}

func (s *FXStore) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS fx_rates (
			from_code   TEXT NOT NULL,
			to_code     TEXT NOT NULL,
			factor      REAL NOT NULL,
			acquired_at INTEGER NOT NULL,
			PRIMARY KEY (from_code, to_code)
		)`)
	return err
}

// SaveRate upserts the factor for a currency pair.
func (s *FXStore) SaveRate(from, to string, factor float64, acquiredAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO fx_rates (from_code, to_code, factor, acquired_at)
		VALUES (?,?,?,?)`,
		from, to, factor, acquiredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rate: %w", err)
	}
	return nil
}

// Rate returns the last-known factor for a currency pair. The second result
// is false when the pair was never seen.
func (s *FXStore) Rate(from, to string) (float64, bool, error) {
	row := s.db.QueryRow(`SELECT factor FROM fx_rates WHERE from_code = ? AND to_code = ?`, from, to)
	var factor float64
	err := row.Scan(&factor)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load rate: %w", err)
	}
	return factor, true, nil
}

// RateAge returns the last-known factor together with its acquisition time.
func (s *FXStore) RateAge(from, to string) (float64, time.Time, bool, error) {
	row := s.db.QueryRow(`SELECT factor, acquired_at FROM fx_rates WHERE from_code = ? AND to_code = ?`, from, to)
	var factor float64
	var acquiredAtNano int64
	err := row.Scan(&factor, &acquiredAtNano)
	if err == sql.ErrNoRows {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("failed to load rate: %w", err)
	}
	return factor, time.Unix(0, acquiredAtNano), true, nil
}

// Seed inserts factors for pairs the store has never seen, leaving fresher
// rows untouched. Used to ship an approximate starting table.
func (s *FXStore) Seed(rates map[[2]string]float64, acquiredAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for pair, factor := range rates {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO fx_rates (from_code, to_code, factor, acquired_at)
			VALUES (?,?,?,?)`,
			pair[0], pair[1], factor, acquiredAt.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to seed rate %s/%s: %w", pair[0], pair[1], err)
		}
	}
	return tx.Commit()
}
