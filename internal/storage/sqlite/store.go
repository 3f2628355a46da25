// Package sqlite implements storage.SnapshotStore on an SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/steveyegge/todoq/internal/storage"
	"github.com/steveyegge/todoq/internal/types"

	// Import SQLite driver
	_ "modernc.org/sqlite"
)

const (
	metaSchemaVersion = "schema_version"
	metaSavedAt       = "saved_at"
	metaAccount       = "account"
)

// Store implements storage.SnapshotStore.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

var _ storage.SnapshotStore = (*Store)(nil)

// DefaultPath returns the snapshot location under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(dir, "todoq", "metadata.db"), nil
}

// New opens (creating if needed) the snapshot database at path. ":memory:"
// opens a private in-memory database.
func New(ctx context.Context, path string) (*Store, error) {
	var connStr string
	if path == ":memory:" {
		connStr = "file::memory:?_pragma=busy_timeout(5000)"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; in-memory databases are per connection anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.checkVersion(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// checkVersion clears a snapshot written by a different schema version.
func (s *Store) checkVersion(ctx context.Context) error {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSchemaVersion).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return wrapDBError("read schema version", err)
	case version == schemaVersion:
		return nil
	}
	if err := s.Clear(ctx); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaSchemaVersion, schemaVersion)
	return wrapDBError("write schema version", err)
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the stored snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap *storage.Snapshot) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	if err := insertEntities(ctx, tx, "projects", snap.Projects, func(p types.Project) string { return string(p.ID) }); err != nil {
		return err
	}
	if err := insertEntities(ctx, tx, "sections", snap.Sections, func(sec types.Section) string { return string(sec.ID) }); err != nil {
		return err
	}
	if err := insertEntities(ctx, tx, "labels", snap.Labels, func(l types.Label) string { return string(l.ID) }); err != nil {
		return err
	}
	for resource, token := range snap.SyncTokens {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sync_tokens (resource, token) VALUES (?, ?)`, resource, token); err != nil {
			return wrapDBError("insert sync token", err)
		}
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaSavedAt, savedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return wrapDBError("write saved_at", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaAccount, snap.Account); err != nil {
		return wrapDBError("write account", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func insertEntities[E any](ctx context.Context, tx *sql.Tx, table string, items []E, id func(E) string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (id, position, body) VALUES (?, ?, ?)`)
	if err != nil {
		return wrapDBError("prepare insert "+table, err)
	}
	defer stmt.Close()

	for i, item := range items {
		body, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode %s row: %w", table, err)
		}
		if _, err := stmt.ExecContext(ctx, id(item), i, string(body)); err != nil {
			return wrapDBError("insert "+table, err)
		}
	}
	return nil
}

// Load returns the stored snapshot, or storage.ErrNotFound if none was saved.
func (s *Store) Load(ctx context.Context) (*storage.Snapshot, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaSavedAt).Scan(&savedAt)
	if err != nil {
		return nil, wrapDBError("load snapshot", err)
	}

	snap := &storage.Snapshot{SyncTokens: make(map[string]string)}
	if t, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		snap.SavedAt = t
	}
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaAccount).Scan(&snap.Account)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, wrapDBError("load account", err)
	}
	if snap.Projects, err = loadEntities[types.Project](ctx, s.db, "projects"); err != nil {
		return nil, err
	}
	if snap.Sections, err = loadEntities[types.Section](ctx, s.db, "sections"); err != nil {
		return nil, err
	}
	if snap.Labels, err = loadEntities[types.Label](ctx, s.db, "labels"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT resource, token FROM sync_tokens`)
	if err != nil {
		return nil, wrapDBError("load sync tokens", err)
	}
	defer rows.Close()
	for rows.Next() {
		var resource, token string
		if err := rows.Scan(&resource, &token); err != nil {
			return nil, wrapDBError("scan sync token", err)
		}
		snap.SyncTokens[resource] = token
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("load sync tokens", err)
	}
	return snap, nil
}

func loadEntities[E any](ctx context.Context, db *sql.DB, table string) ([]E, error) {
	rows, err := db.QueryContext(ctx, `SELECT body FROM `+table+` ORDER BY position`)
	if err != nil {
		return nil, wrapDBError("load "+table, err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, wrapDBError("scan "+table, err)
		}
		var item E
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", table, err)
		}
		out = append(out, item)
	}
	return out, wrapDBError("load "+table, rows.Err())
}

// Clear removes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := clearTx(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTx(ctx context.Context, tx *sql.Tx) error {
	tables := append(append([]string{}, entityTables...), "sync_tokens")
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return wrapDBError("clear "+table, err)
		}
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE key IN (?, ?)`, metaSavedAt, metaAccount)
	return wrapDBError("clear meta", err)
}

// Close closes the database. Further calls return storage.ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

