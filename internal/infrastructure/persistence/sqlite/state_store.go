// Package sqlite persists engine state (collapsed branches, last-good
// configuration) in a small SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver" // SQLite driver
	_ "github.com/ncruces/go-sqlite3/embed"  // Embed SQLite

	"github.com/arbor-browser/arbor/internal/application/port"
)

const schemaVersion = 1

// StateStore implements port.StateStore over SQLite.
type StateStore struct {
	db *sql.DB
}

var _ port.StateStore = (*StateStore)(nil)

// Open opens (creating if needed) the state database at path and applies the
// schema.
func Open(path string) (*StateStore, error) {
	if path == "" {
		return nil, errors.New("state database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return &StateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}

	const schema = `
CREATE TABLE IF NOT EXISTS collapsed_nodes (
	node_id  TEXT PRIMARY KEY,
	saved_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS engine_config (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	raw      BLOB NOT NULL,
	saved_at TIMESTAMP NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// SaveCollapsed replaces the stored collapsed set.
func (s *StateStore) SaveCollapsed(ctx context.Context, state port.CollapsedState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM collapsed_nodes"); err != nil {
		return err
	}
	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	for _, id := range state.IDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collapsed_nodes (node_id, saved_at) VALUES (?, ?)",
			id, savedAt.UTC(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCollapsed returns the stored collapsed set in insertion order. A
// missing set is an empty state, not an error.
func (s *StateStore) LoadCollapsed(ctx context.Context) (port.CollapsedState, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT node_id, saved_at FROM collapsed_nodes ORDER BY rowid")
	if err != nil {
		return port.CollapsedState{}, err
	}
	defer func() { _ = rows.Close() }()

	var state port.CollapsedState
	for rows.Next() {
		var id string
		var savedAt time.Time
		if err := rows.Scan(&id, &savedAt); err != nil {
			return port.CollapsedState{}, err
		}
		state.IDs = append(state.IDs, id)
		state.SavedAt = savedAt
	}
	return state, rows.Err()
}

// SaveEngineConfig stores the serialized last-good configuration.
func (s *StateStore) SaveEngineConfig(ctx context.Context, raw []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO engine_config (id, raw, saved_at) VALUES (1, ?, ?) "+
			"ON CONFLICT (id) DO UPDATE SET raw = excluded.raw, saved_at = excluded.saved_at",
		raw, time.Now().UTC(),
	)
	return err
}

// LoadEngineConfig returns the stored configuration blob, ok=false when none
// has been saved yet.
func (s *StateStore) LoadEngineConfig(ctx context.Context) ([]byte, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT raw FROM engine_config WHERE id = 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}
