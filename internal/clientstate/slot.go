package clientstate

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/chmouel/lazychangelist/internal/log"
)

// Persister is anything that can write its state at a checkpoint.
type Persister interface {
	CheckAndPersist() error
}

// SlotHooks connects a Slot to the state it persists.
type SlotHooks[T any] struct {
	// OnInit receives the decoded value when one was found at construction.
	OnInit func(value T)
	// Value returns the current value to persist.
	Value func() T
	// HasChanged reports whether Value differs from what was last seen.
	// It may update its own baseline as a side effect.
	HasChanged func() bool
}

// Slot hydrates a value from a BackingStore once and writes it back at
// checkpoints when HasChanged reports a change.
type Slot[T any] struct {
	store BackingStore
	key   Key
	scope Scope
	hooks SlotHooks[T]
	logf  func(string, ...any)
}

// SlotOption customises a Slot.
type SlotOption func(*slotConfig)

type slotConfig struct {
	logf func(string, ...any)
}

// WithSlotLogger overrides the debug logger used for swallowed load errors.
func WithSlotLogger(logf func(string, ...any)) SlotOption {
	return func(c *slotConfig) {
		c.logf = logf
	}
}

// NewSlot creates a Slot and immediately tries to hydrate it. A missing,
// unreadable or undecodable value leaves the consumer's default in place.
func NewSlot[T any](store BackingStore, key Key, scope Scope, hooks SlotHooks[T], opts ...SlotOption) *Slot[T] {
	cfg := slotConfig{logf: log.Printf}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Slot[T]{
		store: store,
		key:   key,
		scope: scope,
		hooks: hooks,
		logf:  cfg.logf,
	}
	s.load()
	return s
}

func (s *Slot[T]) load() {
	if s.store == nil {
		return
	}
	raw, found, err := s.store.Load(s.key, s.scope)
	if err != nil {
		s.debugf("client state: load %s (%s) failed: %v", s.key, s.scope, err)
		return
	}
	if !found || len(raw) == 0 {
		return
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.debugf("client state: decode %s (%s) failed: %v", s.key, s.scope, err)
		return
	}
	if s.hooks.OnInit != nil {
		s.hooks.OnInit(value)
	}
}

// CheckAndPersist writes the current value when HasChanged reports true.
// Write errors are returned as-is to the caller; there is no retry.
func (s *Slot[T]) CheckAndPersist() error {
	if s.hooks.HasChanged == nil || s.hooks.Value == nil {
		return nil
	}
	if !s.hooks.HasChanged() {
		return nil
	}
	if s.store == nil {
		return errors.New("client state: no backing store")
	}
	data, err := json.Marshal(s.hooks.Value())
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.store.Save(s.key, s.scope, data); err != nil {
		return fmt.Errorf("save %s (%s): %w", s.key, s.scope, err)
	}
	s.debugf("client state: saved %s (%s)", s.key, s.scope)
	return nil
}

func (s *Slot[T]) debugf(format string, args ...any) {
	if s.logf == nil {
		return
	}
	s.logf(format, args...)
}

// Registry runs a set of persisters together at each checkpoint.
type Registry struct {
	persisters []Persister
}

// Register adds p to the registry.
func (r *Registry) Register(p Persister) {
	if p == nil {
		return
	}
	r.persisters = append(r.persisters, p)
}

// Len returns the number of registered persisters.
func (r *Registry) Len() int { return len(r.persisters) }

// Checkpoint asks every persister to save; all are attempted and their
// errors joined.
func (r *Registry) Checkpoint() error {
	var errs []error
	for _, p := range r.persisters {
		if err := p.CheckAndPersist(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
