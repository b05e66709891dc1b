package changelist

import (
	"github.com/chmouel/lazychangelist/internal/models"
)

type gatewayCall struct {
	op    string
	paths []string
	done  func(error)
}

// fakeGateway records calls and lets the test decide when they complete.
type fakeGateway struct {
	calls      []gatewayCall
	fetches    []func(models.Snapshot, error)
	autoResult *error
}

func (g *fakeGateway) StageFiles(paths []string, done func(error)) {
	g.record("stage", paths, done)
}

func (g *fakeGateway) UnstageFiles(paths []string, done func(error)) {
	g.record("unstage", paths, done)
}

func (g *fakeGateway) FetchStatus(done func(models.Snapshot, error)) {
	g.fetches = append(g.fetches, done)
}

func (g *fakeGateway) record(op string, paths []string, done func(error)) {
	g.calls = append(g.calls, gatewayCall{op: op, paths: append([]string(nil), paths...), done: done})
	if g.autoResult != nil {
		done(*g.autoResult)
	}
}

type fakeView struct {
	entries   []models.StatusEntry
	setCalls  int
	sort      models.SortSpec
	sortSets  int
	handler   func(StageUnstageEvent)
	knownOnly bool
	onEntries func([]models.StatusEntry)
}

func newFakeView() *fakeView {
	return &fakeView{sort: models.DefaultSortSpec()}
}

func (v *fakeView) SetEntries(entries []models.StatusEntry) {
	v.entries = entries
	v.setCalls++
	if v.onEntries != nil {
		v.onEntries(entries)
	}
}

func (v *fakeView) SortSpec() models.SortSpec { return v.sort.Clone() }

func (v *fakeView) SetSortSpec(spec models.SortSpec) {
	v.sortSets++
	if v.knownOnly {
		spec = models.KnownSortSpec(spec)
	}
	v.sort = spec.Clone()
}

func (v *fakeView) OnStageUnstage(handler func(StageUnstageEvent)) {
	v.handler = handler
}

type fakeProgress struct {
	errors    []string
	completed int
}

func (p *fakeProgress) OnError(message string) { p.errors = append(p.errors, message) }

func (p *fakeProgress) OnCompleted() { p.completed++ }
