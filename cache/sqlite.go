package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	_ "github.com/mattn/go-sqlite3"

	"osukit/difficulty"
	"osukit/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS attributes (
	hash    TEXT    NOT NULL,
	mods    INTEGER NOT NULL,
	rate    REAL    NOT NULL,
	version INTEGER NOT NULL,
	data    BLOB    NOT NULL,
	PRIMARY KEY (hash, mods, rate, version)
)`

// SQLite is a Cache backed by a sqlite3 database.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the database at dsn, e.g. "cache.db" or
// ":memory:".
func Open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dsn, err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, k Key) (difficulty.Attributes, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM attributes WHERE hash = ? AND mods = ? AND rate = ? AND version = ?`,
		k.Hash, int64(k.Mods.Mods), k.Mods.ClockRate(), k.Version,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		logging.Logger().Debug("cache miss", "hash", k.Hash, "mods", k.Mods.String())
		return difficulty.Attributes{}, false, nil
	}
	if err != nil {
		return difficulty.Attributes{}, false, fmt.Errorf("cache: get %s: %w", k.Hash, err)
	}

	var a difficulty.Attributes
	if err := json.Unmarshal(data, &a); err != nil {
		return difficulty.Attributes{}, false, fmt.Errorf("cache: decode %s: %w", k.Hash, err)
	}
	logging.Logger().Debug("cache hit",
		"hash", k.Hash,
		"mods", k.Mods.String(),
		"size", humanize.Bytes(uint64(len(data))))
	return a, true, nil
}

func (s *SQLite) Put(ctx context.Context, k Key, a difficulty.Attributes) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", k.Hash, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO attributes (hash, mods, rate, version, data) VALUES (?, ?, ?, ?, ?)`,
		k.Hash, int64(k.Mods.Mods), k.Mods.ClockRate(), k.Version, data,
	)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", k.Hash, err)
	}
	return nil
}

// Len returns the number of stored entries.
func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attributes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
