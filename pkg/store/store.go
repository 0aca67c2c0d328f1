// Package store holds the neofetch logo table behind the neofetch command.
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrNoMatch is returned when no logo matches a query
var ErrNoMatch = errors.New("no such distro found")

// Logo is one row of the neofetch table
type Logo struct {
	Distro  string
	Variant string
	Logo    string
	Mobile  bool
}

// Store persists neofetch logos to SQLite
type Store struct {
	db   *sql.DB
	path string

	mu      sync.RWMutex
	updated time.Time
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	registerRegexp()

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.loadUpdated(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS neofetch (
			distro       TEXT NOT NULL,
			variant      TEXT NOT NULL,
			pattern      TEXT NOT NULL,
			logo         TEXT NOT NULL,
			mobile_width INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_neofetch_mobile ON neofetch(mobile_width);

		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) loadUpdated(ctx context.Context) error {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'neofetch_updated'").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	s.updated = t
	s.mu.Unlock()
	return nil
}

// UpdatedAt returns when the table was last imported
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// ImportCSV replaces the table with the rows of r. The header row must name
// the columns distro, variant, pattern, logo and mobile_width.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 5

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	want := []string{"distro", "variant", "pattern", "logo", "mobile_width"}
	for i, col := range want {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return 0, fmt.Errorf("unexpected csv column %d: %q, want %q", i, header[i], col)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM neofetch"); err != nil {
		return 0, fmt.Errorf("failed to clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO neofetch (distro, variant, pattern, logo, mobile_width) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read csv row %d: %w", n+2, err)
		}
		if _, err := compiled(rec[2]); err != nil {
			return 0, fmt.Errorf("row %d: invalid pattern %q: %w", n+2, rec[2], err)
		}
		mobile, err := strconv.ParseBool(strings.TrimSpace(rec[4]))
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid mobile_width %q", n+2, rec[4])
		}
		if _, err := stmt.ExecContext(ctx, rec[0], rec[1], rec[2], rec[3], mobile); err != nil {
			return 0, fmt.Errorf("failed to insert row %d: %w", n+2, err)
		}
		n++
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO metadata (key, value) VALUES ('neofetch_updated', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		now.Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("failed to record import time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	s.mu.Lock()
	s.updated = now
	s.mu.Unlock()
	return n, nil
}

// ImportFile imports the CSV file at path
func (s *Store) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return s.ImportCSV(ctx, f)
}

// Query returns every logo whose pattern matches distro. An empty distro
// matches all rows; mobile restricts the result to mobile-width logos.
func (s *Store) Query(ctx context.Context, distro string, mobile bool) ([]Logo, error) {
	var distroArg, mobileArg any
	if distro != "" {
		distroArg = distro
	}
	if mobile {
		mobileArg = true
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT distro, variant, logo, mobile_width FROM neofetch
		WHERE (?1 IS NULL OR ?1 REGEXP pattern) AND (?2 IS NULL OR mobile_width = ?2)
		ORDER BY rowid`,
		distroArg, mobileArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query neofetch: %w", err)
	}
	defer rows.Close()

	var logos []Logo
	for rows.Next() {
		var l Logo
		if err := rows.Scan(&l.Distro, &l.Variant, &l.Logo, &l.Mobile); err != nil {
			return nil, fmt.Errorf("failed to scan neofetch row: %w", err)
		}
		logos = append(logos, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read neofetch rows: %w", err)
	}
	return logos, nil
}

// Random returns one matching logo, or ErrNoMatch
func (s *Store) Random(ctx context.Context, distro string, mobile bool) (Logo, error) {
	logos, err := s.Query(ctx, distro, mobile)
	if err != nil {
		return Logo{}, err
	}
	if len(logos) == 0 {
		return Logo{}, ErrNoMatch
	}
	return logos[rand.IntN(len(logos))], nil
}
