package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/lazychangelist/internal/changelist"
	"github.com/chmouel/lazychangelist/internal/clientstate"
	"github.com/chmouel/lazychangelist/internal/git"
	"github.com/chmouel/lazychangelist/internal/models"
)

// asyncBackend is a git.Backend whose index is a map, so the full
// gateway → queue → update loop path runs without a repository.
type asyncBackend struct {
	staged map[string]bool
}

func (b *asyncBackend) snapshot() (models.Snapshot, error) {
	entries := []models.StatusEntry{
		{Path: "main.go", Code: models.Modified, Staged: b.staged["main.go"]},
		{Path: "README.md", Code: models.Modified, Staged: b.staged["README.md"]},
	}
	return models.NewSnapshot(entries)
}

func (b *asyncBackend) Status(_ context.Context) (models.Snapshot, error) { return b.snapshot() }

func (b *asyncBackend) Stage(_ context.Context, paths []string) error {
	for _, p := range paths {
		b.staged[p] = true
	}
	return nil
}

func (b *asyncBackend) Unstage(_ context.Context, paths []string) error {
	for _, p := range paths {
		delete(b.staged, p)
	}
	return nil
}

func TestProgramStagesThroughAsyncGateway(t *testing.T) {
	backend := &asyncBackend{staged: map[string]bool{}}
	queue := NewCallbackQueue(16)
	gw := git.NewGateway(backend, git.WithPoster(queue.Post), git.WithGatewayLogger(func(string, ...any) {}))

	m := NewModel(Options{Config: testConfig(), Repo: "demo", Queue: queue})
	m.logf = nil
	backing := clientstate.NewMemoryStore()
	coord := changelist.NewCoordinator(gw, m, backing,
		changelist.WithProgressReporter(m),
		changelist.WithLogger(func(string, ...any) {}),
	)
	coord.InitializeSortPersistence()
	m.Bind(coord)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("main.go")) && bytes.Contains(out, []byte("README.md"))
	}, teatest.WithDuration(3*time.Second))

	// README.md sorts first; stage it.
	tm.Send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("1 staged"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	fm, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	assert.True(t, fm.quitting)
	assert.True(t, backend.staged["README.md"])
	assert.Equal(t, "staged,path", fm.SortSpec().String())

	raw, found, err := backing.Load(changelist.DefaultSortKey, clientstate.ScopePersistent)
	require.NoError(t, err)
	require.True(t, found, "quitting checkpoints the sort order")
	assert.JSONEq(t, `[{"columnId":"staged","ascending":true},{"columnId":"path","ascending":true}]`, string(raw))
}
