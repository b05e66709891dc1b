// Package clientstate persists small pieces of view state (sort order,
// collapsed sections, ...) in keyed backing stores and writes them back only
// when they change.
package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScope is returned by stores asked to handle a scope they do not serve.
var ErrUnknownScope = errors.New("unknown client state scope")

// Scope controls how long a persisted value lives.
type Scope int

// Persistence scopes.
const (
	// ScopeSession values live as long as the process.
	ScopeSession Scope = iota
	// ScopePersistent values survive restarts and are shared by every repository.
	ScopePersistent
	// ScopeProject values survive restarts and are stored per repository.
	ScopeProject
)

func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopePersistent:
		return "persistent"
	case ScopeProject:
		return "project"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope maps a config string to a Scope.
func ParseScope(name string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "session", "temporary":
		return ScopeSession, nil
	case "persistent", "":
		return ScopePersistent, nil
	case "project":
		return ScopeProject, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScope, name)
}

// Key addresses a value by module and name, e.g. vcs/sortOrder.
type Key struct {
	Module string
	Name   string
}

func (k Key) String() string {
	return k.Module + "." + k.Name
}

// BackingStore loads and saves opaque encoded values.
// Load reports found=false when no value exists for the key.
type BackingStore interface {
	Load(key Key, scope Scope) (value json.RawMessage, found bool, err error)
	Save(key Key, scope Scope, value json.RawMessage) error
}

// Router sends each scope to its own BackingStore.
type Router struct {
	stores map[Scope]BackingStore
}

// NewRouter builds a Router. Nil stores are skipped.
func NewRouter(stores map[Scope]BackingStore) *Router {
	r := &Router{stores: make(map[Scope]BackingStore, len(stores))}
	for scope, store := range stores {
		if store != nil {
			r.stores[scope] = store
		}
	}
	return r
}

// Load implements BackingStore.
func (r *Router) Load(key Key, scope Scope) (json.RawMessage, bool, error) {
	store, ok := r.stores[scope]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	return store.Load(key, scope)
}

// Save implements BackingStore.
func (r *Router) Save(key Key, scope Scope, value json.RawMessage) error {
	store, ok := r.stores[scope]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	return store.Save(key, scope, value)
}
