package clientstate

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Options selects and locates the durable backing stores.
type Options struct {
	Backend string // "file" (default) or "sqlite"
	Dir     string // state directory
	Project string // repository key for ScopeProject values
}

// Open builds a Router serving all three scopes. Session values always live
// in memory. The returned close function releases any database handle.
func Open(opts Options) (*Router, func() error, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, nil, fmt.Errorf("client state directory is empty")
	}
	noop := func() error { return nil }
	session := NewMemoryStore()

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		stores := map[Scope]BackingStore{
			ScopeSession:    session,
			ScopePersistent: NewFileStore(filepath.Join(opts.Dir, StateFilename)),
		}
		if opts.Project != "" {
			stores[ScopeProject] = NewFileStore(filepath.Join(opts.Dir, "projects", opts.Project, StateFilename))
		}
		return NewRouter(stores), noop, nil
	case BackendSQLite:
		db, err := OpenSQLiteStore(filepath.Join(opts.Dir, DatabaseFilename), opts.Project)
		if err != nil {
			return nil, nil, err
		}
		stores := map[Scope]BackingStore{
			ScopeSession:    session,
			ScopePersistent: db,
		}
		if opts.Project != "" {
			stores[ScopeProject] = db
		}
		return NewRouter(stores), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported state backend %q", opts.Backend)
	}
}
