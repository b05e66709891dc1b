package changelist

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/chmouel/lazychangelist/internal/clientstate"
	"github.com/chmouel/lazychangelist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet(string, ...any) {}

func newTestCoordinator(t *testing.T, opts ...Option) (*Coordinator, *fakeGateway, *fakeView, *clientstate.MemoryStore) {
	t.Helper()
	gw := &fakeGateway{}
	view := newFakeView()
	backing := clientstate.NewMemoryStore()
	opts = append([]Option{WithLogger(quiet)}, opts...)
	return NewCoordinator(gw, view, backing, opts...), gw, view, backing
}

func TestCoordinatorActivatesOnConstruction(t *testing.T) {
	c, _, view, _ := newTestCoordinator(t)

	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, "active", c.State().String())
	assert.NotNil(t, view.handler, "stage/unstage handler registered")
	assert.Equal(t, 1, c.Store().Subscribers())
	assert.Equal(t, 0, view.setCalls, "no entries pushed before first refresh")
}

func TestRefreshPushesEntriesToView(t *testing.T) {
	c, _, view, _ := newTestCoordinator(t)

	snap := mustSnapshot(t,
		models.StatusEntry{Path: "b.txt", Code: models.Added, Staged: true},
		models.StatusEntry{Path: "a.txt", Code: models.Modified},
	)
	c.Store().Refresh(snap)

	assert.Equal(t, 1, view.setCalls)
	assert.Equal(t, snap.Entries(), view.entries)
}

func TestStageRequestIssuesOneBatchedCall(t *testing.T) {
	c, gw, view, _ := newTestCoordinator(t)

	c.HandleStageUnstage([]string{"a.txt", "b.txt"}, false)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, "stage", gw.calls[0].op)
	assert.Equal(t, []string{"a.txt", "b.txt"}, gw.calls[0].paths)
	assert.Equal(t, 0, view.setCalls, "no direct view mutation")
}

func TestUnstageRequestFromViewEvent(t *testing.T) {
	_, gw, view, _ := newTestCoordinator(t)

	view.handler(StageUnstageEvent{Paths: []string{"x.txt", "x.txt", "", "y.txt"}, Unstage: true})

	require.Len(t, gw.calls, 1)
	assert.Equal(t, "unstage", gw.calls[0].op)
	assert.Equal(t, []string{"x.txt", "y.txt"}, gw.calls[0].paths)
}

func TestEmptyStageRequestIsIgnored(t *testing.T) {
	c, gw, _, _ := newTestCoordinator(t)

	c.HandleStageUnstage(nil, false)
	c.HandleStageUnstage([]string{""}, true)

	assert.Empty(t, gw.calls)
}

func TestFailedStageLeavesViewUnchanged(t *testing.T) {
	progress := &fakeProgress{}
	c, gw, view, _ := newTestCoordinator(t, WithProgressReporter(progress))

	c.Store().Refresh(mustSnapshot(t, models.StatusEntry{Path: "x.txt", Code: models.Modified}))
	before := append([]models.StatusEntry(nil), view.entries...)
	setCalls := view.setCalls

	c.HandleStageUnstage([]string{"x.txt"}, false)
	require.Len(t, gw.calls, 1)
	gw.calls[0].done(errors.New("index.lock exists"))

	assert.Equal(t, before, view.entries)
	assert.Equal(t, setCalls, view.setCalls)
	assert.Equal(t, []string{"index.lock exists"}, progress.errors)
	assert.Equal(t, 0, progress.completed)
}

func TestSuccessfulStageReportsCompletionWithoutViewUpdate(t *testing.T) {
	progress := &fakeProgress{}
	c, gw, view, _ := newTestCoordinator(t, WithProgressReporter(progress))

	c.HandleStageUnstage([]string{"x.txt"}, false)
	gw.calls[0].done(nil)

	assert.Equal(t, 1, progress.completed)
	assert.Empty(t, progress.errors)
	assert.Equal(t, 0, view.setCalls)
}

func TestOverlappingRequestsAreSentIndependently(t *testing.T) {
	progress := &fakeProgress{}
	c, gw, _, _ := newTestCoordinator(t, WithProgressReporter(progress))

	c.HandleStageUnstage([]string{"a"}, false)
	c.HandleStageUnstage([]string{"a"}, true)
	require.Len(t, gw.calls, 2)

	// Completions arrive out of order; both are reported.
	gw.calls[1].done(nil)
	gw.calls[0].done(errors.New("late failure"))
	assert.Equal(t, 1, progress.completed)
	assert.Equal(t, []string{"late failure"}, progress.errors)
}

func TestGatewayFailureWithoutReporter(t *testing.T) {
	c, gw, _, _ := newTestCoordinator(t)
	c.HandleStageUnstage([]string{"a"}, false)
	assert.NotPanics(t, func() { gw.calls[0].done(errors.New("boom")) })
}

func TestRefreshTriggerInstallsFetchedSnapshot(t *testing.T) {
	c, gw, view, _ := newTestCoordinator(t)

	c.HandleRefreshTrigger()
	require.Len(t, gw.fetches, 1)

	snap := mustSnapshot(t, models.StatusEntry{Path: "x.txt", Code: models.Modified})
	gw.fetches[0](snap, nil)

	assert.Equal(t, snap.Entries(), c.Store().Current().Entries())
	assert.Equal(t, snap.Entries(), view.entries)
}

func TestRefreshTriggerFailureKeepsSnapshot(t *testing.T) {
	progress := &fakeProgress{}
	c, gw, view, _ := newTestCoordinator(t, WithProgressReporter(progress))
	snap := mustSnapshot(t, models.StatusEntry{Path: "x.txt", Code: models.Modified})
	c.Store().Refresh(snap)

	c.HandleRefreshTrigger()
	gw.fetches[0](models.Snapshot{}, errors.New("not a git repository"))

	assert.Equal(t, snap.Entries(), c.Store().Current().Entries())
	assert.Equal(t, 1, view.setCalls)
	assert.Equal(t, []string{"not a git repository"}, progress.errors)
}

func TestEndToEndUnstageAlreadyUnstagedEntry(t *testing.T) {
	progress := &fakeProgress{}
	c, gw, view, _ := newTestCoordinator(t, WithProgressReporter(progress))

	c.HandleRefreshTrigger()
	gw.fetches[0](mustSnapshot(t, models.StatusEntry{Path: "x.txt", Code: models.Modified, Staged: false}), nil)
	require.Len(t, view.entries, 1)
	assert.Equal(t, models.StatusEntry{Path: "x.txt", Code: models.Modified, Staged: false}, view.entries[0])

	view.handler(StageUnstageEvent{Paths: []string{"x.txt"}, Unstage: true})
	require.Len(t, gw.calls, 1)
	assert.Equal(t, "unstage", gw.calls[0].op)

	gw.calls[0].done(nil)
	assert.Equal(t, 1, view.setCalls, "no view change until next refresh")
	assert.Equal(t, 1, progress.completed)
}

func TestSortRestoreNoopOnEmptyStore(t *testing.T) {
	c, _, view, backing := newTestCoordinator(t)

	c.InitializeSortPersistence()

	assert.Equal(t, 0, view.sortSets)
	assert.Equal(t, models.DefaultSortSpec(), view.sort)
	assert.Equal(t, 0, backing.Writes())
}

func TestSortPersistenceRoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	backing := clientstate.NewMemoryStore()

	view1 := newFakeView()
	c1 := NewCoordinator(gw, view1, backing, WithLogger(quiet))
	c1.InitializeSortPersistence()

	s1 := models.SortSpec{
		{ColumnID: models.ColumnStatus, Ascending: false},
		{ColumnID: models.ColumnPath, Ascending: true},
	}
	view1.sort = s1
	require.NoError(t, c1.Checkpoint())
	assert.Equal(t, 1, backing.Writes())

	view2 := newFakeView()
	c2 := NewCoordinator(gw, view2, backing, WithLogger(quiet))
	c2.InitializeSortPersistence()

	assert.Equal(t, 1, view2.sortSets)
	assert.Equal(t, s1, view2.sort)
	// The restored order is the baseline: nothing to write.
	require.NoError(t, c2.Checkpoint())
	assert.Equal(t, 1, backing.Writes())
}

func TestCheckpointIdempotence(t *testing.T) {
	c, _, view, backing := newTestCoordinator(t)
	c.InitializeSortPersistence()

	// The default order differs from the empty baseline: first call may write.
	require.NoError(t, c.Checkpoint())
	first := backing.Writes()
	assert.LessOrEqual(t, first, 1)
	require.NoError(t, c.Checkpoint())
	assert.Equal(t, first, backing.Writes())

	view.sort = view.sort.ToggleColumn(models.ColumnPath)
	require.NoError(t, c.Checkpoint())
	require.NoError(t, c.Checkpoint())
	assert.Equal(t, first+1, backing.Writes())
}

func TestCheckpointBeforeInitialization(t *testing.T) {
	c, _, _, backing := newTestCoordinator(t)
	assert.NoError(t, c.Checkpoint())
	assert.Nil(t, c.SortPersister())
	assert.Equal(t, 0, backing.Writes())
}

func TestRestoreSkipsEmptyPersistedSpec(t *testing.T) {
	gw := &fakeGateway{}
	backing := clientstate.NewMemoryStore()
	require.NoError(t, backing.Save(DefaultSortKey, clientstate.ScopePersistent, json.RawMessage(`[]`)))
	view := newFakeView()

	c := NewCoordinator(gw, view, backing, WithLogger(quiet))
	c.InitializeSortPersistence()

	assert.Equal(t, 0, view.sortSets)
}

func TestRestoreIgnoresUnknownColumns(t *testing.T) {
	gw := &fakeGateway{}
	backing := clientstate.NewMemoryStore()
	require.NoError(t, backing.Save(DefaultSortKey, clientstate.ScopePersistent,
		json.RawMessage(`[{"columnId":"size","ascending":true},{"columnId":"path","ascending":false}]`)))
	view := newFakeView()
	view.knownOnly = true

	c := NewCoordinator(gw, view, backing, WithLogger(quiet))
	c.InitializeSortPersistence()

	assert.Equal(t, models.SortSpec{{ColumnID: models.ColumnPath, Ascending: false}}, view.sort)
	// Baseline is what the view actually applied, so no spurious rewrite.
	require.NoError(t, c.Checkpoint())
	assert.Equal(t, 0, backing.Writes())
}

func TestSortKeyAndScopeAreConfigurable(t *testing.T) {
	key := clientstate.Key{Module: "changelist", Name: "order"}
	c, _, view, backing := newTestCoordinator(t, WithSortKey(key, clientstate.ScopeSession))
	c.InitializeSortPersistence()

	view.sort = models.SortSpec{{ColumnID: models.ColumnStaged, Ascending: true}}
	require.NoError(t, c.Checkpoint())

	_, found, err := backing.Load(key, clientstate.ScopeSession)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = backing.Load(DefaultSortKey, clientstate.ScopePersistent)
	require.NoError(t, err)
	assert.False(t, found)
}
