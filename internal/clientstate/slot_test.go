package clientstate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = Key{Module: "vcs", Name: "sortOrder"}

type failingStore struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStore) Load(Key, Scope) (json.RawMessage, bool, error) {
	return nil, false, f.loadErr
}

func (f *failingStore) Save(Key, Scope, json.RawMessage) error {
	f.saves++
	return f.saveErr
}

// counter is a toy consumer: it persists an int and tracks the last value
// it reported as saved.
type counter struct {
	value    int
	baseline int
	inits    []int
}

func (c *counter) hooks() SlotHooks[int] {
	return SlotHooks[int]{
		OnInit: func(v int) {
			c.inits = append(c.inits, v)
			c.value = v
			c.baseline = v
		},
		Value: func() int { return c.value },
		HasChanged: func() bool {
			if c.value != c.baseline {
				c.baseline = c.value
				return true
			}
			return false
		},
	}
}

func quiet(string, ...any) {}

func TestSlotNoInitOnEmptyStore(t *testing.T) {
	store := NewMemoryStore()
	c := &counter{value: 7, baseline: 7}

	NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	assert.Empty(t, c.inits)
	assert.Equal(t, 7, c.value)
}

func TestSlotHydratesFromStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(testKey, ScopePersistent, json.RawMessage(`42`)))
	c := &counter{}

	NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	assert.Equal(t, []int{42}, c.inits)
}

func TestSlotIgnoresOtherScopes(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(testKey, ScopeSession, json.RawMessage(`1`)))
	c := &counter{}

	NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	assert.Empty(t, c.inits)
}

func TestSlotTreatsLoadFailureAsAbsent(t *testing.T) {
	var logged []string
	logf := func(format string, _ ...any) { logged = append(logged, format) }
	c := &counter{}

	NewSlot(&failingStore{loadErr: errors.New("disk on fire")}, testKey, ScopePersistent, c.hooks(), WithSlotLogger(logf))

	assert.Empty(t, c.inits)
	assert.Len(t, logged, 1)
}

func TestSlotTreatsMalformedValueAsAbsent(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(testKey, ScopePersistent, json.RawMessage(`"not a number"`)))
	c := &counter{}

	NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	assert.Empty(t, c.inits)
}

func TestCheckAndPersistWritesOnlyOnChange(t *testing.T) {
	store := NewMemoryStore()
	c := &counter{}
	slot := NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	require.NoError(t, slot.CheckAndPersist())
	assert.Equal(t, 0, store.Writes())

	c.value = 3
	require.NoError(t, slot.CheckAndPersist())
	require.NoError(t, slot.CheckAndPersist())
	assert.Equal(t, 1, store.Writes())

	raw, found, err := store.Load(testKey, ScopePersistent)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `3`, string(raw))
}

func TestCheckAndPersistPropagatesSaveError(t *testing.T) {
	boom := errors.New("read-only filesystem")
	store := &failingStore{saveErr: boom}
	c := &counter{}
	slot := NewSlot(store, testKey, ScopePersistent, c.hooks(), WithSlotLogger(quiet))

	c.value = 1
	err := slot.CheckAndPersist()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.saves)

	// No retry: the baseline already moved, the next checkpoint is quiet.
	require.NoError(t, slot.CheckAndPersist())
	assert.Equal(t, 1, store.saves)
}

func TestRegistryCheckpointJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	okStore := NewMemoryStore()
	badStore := &failingStore{saveErr: boom}

	a := &counter{}
	b := &counter{}
	var reg Registry
	reg.Register(NewSlot(okStore, Key{Module: "a", Name: "x"}, ScopeSession, a.hooks(), WithSlotLogger(quiet)))
	reg.Register(NewSlot(badStore, Key{Module: "b", Name: "y"}, ScopeSession, b.hooks(), WithSlotLogger(quiet)))
	reg.Register(nil)
	assert.Equal(t, 2, reg.Len())

	a.value, b.value = 1, 2
	err := reg.Checkpoint()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, okStore.Writes())
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"session", ScopeSession},
		{"temporary", ScopeSession},
		{"", ScopePersistent},
		{"Persistent", ScopePersistent},
		{" project ", ScopeProject},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseScope("forever")
	assert.ErrorIs(t, err, ErrUnknownScope)
}

func TestRouterRejectsUnservedScope(t *testing.T) {
	r := NewRouter(map[Scope]BackingStore{ScopeSession: NewMemoryStore(), ScopeProject: nil})

	_, _, err := r.Load(testKey, ScopeProject)
	assert.ErrorIs(t, err, ErrUnknownScope)
	assert.ErrorIs(t, r.Save(testKey, ScopePersistent, json.RawMessage(`1`)), ErrUnknownScope)
	assert.NoError(t, r.Save(testKey, ScopeSession, json.RawMessage(`1`)))
}
