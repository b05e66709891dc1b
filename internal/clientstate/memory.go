package clientstate

import (
	"encoding/json"
	"slices"
)

type memoryKey struct {
	scope Scope
	key   Key
}

// MemoryStore keeps values in process memory. It backs ScopeSession and is
// handy as a fake in tests.
type MemoryStore struct {
	values map[memoryKey]json.RawMessage
	writes int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[memoryKey]json.RawMessage)}
}

// Load implements BackingStore.
func (m *MemoryStore) Load(key Key, scope Scope) (json.RawMessage, bool, error) {
	value, ok := m.values[memoryKey{scope: scope, key: key}]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

// Save implements BackingStore.
func (m *MemoryStore) Save(key Key, scope Scope, value json.RawMessage) error {
	m.values[memoryKey{scope: scope, key: key}] = slices.Clone(value)
	m.writes++
	return nil
}

// Writes returns how many times Save was called.
func (m *MemoryStore) Writes() int { return m.writes }
