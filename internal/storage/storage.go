// Package storage provides a small persistent key/value store for the
// artifact history and the sign-in marker.
//
// The store is backed by SQLite and enforces a per-value byte quota: a Set
// whose payload exceeds the quota fails with ErrQuotaExceeded, which is the
// signal the history store's lighten-and-retry policy reacts to. A file lock
// on the data directory asserts the single-writer assumption; a second
// process opening the same directory fails fast instead of interleaving
// writes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound indicates the key has no stored value.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded indicates a value was larger than the configured
	// per-value quota. Callers may retry with a reduced payload.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrLocked indicates another process holds the store lock.
	ErrLocked = errors.New("storage directory locked by another process")
)

// Logical keys used by the application. The store itself is key-agnostic.
const (
	KeyHistory = "history"
	KeyUser    = "user"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// KV is the persistence contract the history store depends on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store is a SQLite-backed KV with a per-value byte quota.
//
// Store is safe for concurrent use within one process; cross-process
// exclusion is enforced by the directory lock taken in Open.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	quota  int64
	logger *slog.Logger
}

// Open opens (creating if needed) the store under dir. quota bounds a single
// value in bytes; zero disables the bound.
func Open(dir string, quota int64, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "storage.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring store lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "mythos.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("storage opened", "dir", dir, "quota_bytes", quota)
	return &Store{db: db, lock: lock, quota: quota, logger: logger}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value. Values larger
// than the quota fail with ErrQuotaExceeded without touching the stored
// state.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.quota > 0 && int64(len(value)) > s.quota {
		return fmt.Errorf("%w: %d bytes for %q (quota %d)", ErrQuotaExceeded, len(value), key, s.quota)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Ping verifies the underlying database is reachable. Used by the readiness
// probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storage ping: %w", err)
	}
	return nil
}

// Close releases the database and the directory lock.
func (s *Store) Close() error {
	dbErr := s.db.Close()
	lockErr := s.lock.Unlock()
	if dbErr != nil {
		return fmt.Errorf("closing database: %w", dbErr)
	}
	if lockErr != nil {
		return fmt.Errorf("releasing store lock: %w", lockErr)
	}
	return nil
}
