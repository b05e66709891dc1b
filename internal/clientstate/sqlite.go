package clientstate

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DatabaseFilename is the SQLite database used by the sqlite state backend.
const DatabaseFilename = "client-state.db"

// SQLiteStore keeps client state rows in a SQLite database. Project-scoped
// rows are keyed by the repository identifier given at construction.
type SQLiteStore struct {
	db      *sql.DB
	project string
}

// OpenSQLiteStore opens (creating if needed) the database at dbPath.
func OpenSQLiteStore(dbPath, project string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), defaultDirPerms); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, project: project}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS client_state (
		scope      TEXT NOT NULL,
		project    TEXT NOT NULL DEFAULT '',
		module     TEXT NOT NULL,
		name       TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY(scope, project, module, name)
	);`)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) projectFor(scope Scope) string {
	if scope == ScopeProject {
		return s.project
	}
	return ""
}

// Load implements BackingStore.
func (s *SQLiteStore) Load(key Key, scope Scope) (json.RawMessage, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM client_state WHERE scope = ? AND project = ? AND module = ? AND name = ?`,
		scope.String(), s.projectFor(scope), key.Module, key.Name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// Save implements BackingStore.
func (s *SQLiteStore) Save(key Key, scope Scope, value json.RawMessage) error {
	_, err := s.db.Exec(`
	INSERT INTO client_state (scope, project, module, name, value, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(scope, project, module, name) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`,
		scope.String(), s.projectFor(scope), key.Module, key.Name,
		string(value), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
