package changelist

import (
	"github.com/chmouel/lazychangelist/internal/clientstate"
	log "github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/models"
)

// Gateway is the asynchronous version-control backend. Each call completes
// exactly once through done, on the caller's logical thread.
type Gateway interface {
	StageFiles(paths []string, done func(error))
	UnstageFiles(paths []string, done func(error))
	FetchStatus(done func(models.Snapshot, error))
}

// StageUnstageEvent is raised by the view when the user stages or unstages
// a selection.
type StageUnstageEvent struct {
	Paths   []string
	Unstage bool
}

// View renders entries and reports user gestures.
type View interface {
	SetEntries(entries []models.StatusEntry)
	SortSpec() models.SortSpec
	SetSortSpec(spec models.SortSpec)
	OnStageUnstage(handler func(StageUnstageEvent))
}

// ProgressReporter is told how gateway calls end.
type ProgressReporter interface {
	OnError(message string)
	OnCompleted()
}

// State is the coordinator lifecycle state.
type State int

// Coordinator states. There is no way back to StateUninitialized.
const (
	StateUninitialized State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "uninitialized"
}

// DefaultSortKey is where the view's sort order is persisted.
var DefaultSortKey = clientstate.Key{Module: "vcs", Name: "sortOrder"}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithProgressReporter reports gateway outcomes to r.
func WithProgressReporter(r ProgressReporter) Option {
	return func(c *Coordinator) {
		c.progress = r
	}
}

// WithSortKey overrides the key and scope used for the sort order.
func WithSortKey(key clientstate.Key, scope clientstate.Scope) Option {
	return func(c *Coordinator) {
		c.sortKey = key
		c.sortScope = scope
	}
}

// WithLogger overrides the debug logger.
func WithLogger(logf func(string, ...any)) Option {
	return func(c *Coordinator) {
		c.logf = logf
	}
}

// Coordinator bridges the status store, the view, the gateway and the
// client-state backing store. It lives as long as its view.
type Coordinator struct {
	gateway  Gateway
	view     View
	backing  clientstate.BackingStore
	progress ProgressReporter
	logf     func(string, ...any)

	store     *Store
	storeSub  *Subscription
	state     State
	sortKey   clientstate.Key
	sortScope clientstate.Scope
	sortSlot  *clientstate.Slot[models.SortSpec]
	sortPrint string
}

// NewCoordinator wires the coordinator to its collaborators and activates it.
func NewCoordinator(gateway Gateway, view View, backing clientstate.BackingStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:   gateway,
		view:      view,
		backing:   backing,
		logf:      log.Printf,
		store:     NewStore(),
		sortKey:   DefaultSortKey,
		sortScope: clientstate.ScopePersistent,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.storeSub = c.store.Subscribe(c.handleSnapshot)
	c.view.OnStageUnstage(c.handleStageUnstageEvent)
	c.state = StateActive
	return c
}

// State reports the lifecycle state.
func (c *Coordinator) State() State { return c.state }

// Store returns the status store owned by the coordinator.
func (c *Coordinator) Store() *Store { return c.store }

func (c *Coordinator) handleSnapshot(snapshot models.Snapshot) {
	c.view.SetEntries(snapshot.Entries())
}

func (c *Coordinator) handleStageUnstageEvent(event StageUnstageEvent) {
	c.HandleStageUnstage(event.Paths, event.Unstage)
}

// HandleStageUnstage sends all paths to the gateway in a single call. The
// view is not touched; it converges on the next refresh.
func (c *Coordinator) HandleStageUnstage(paths []string, unstage bool) {
	paths = uniquePaths(paths)
	if len(paths) == 0 {
		c.debugf("changelist: empty stage/unstage request ignored")
		return
	}

	op := "stage"
	call := c.gateway.StageFiles
	if unstage {
		op = "unstage"
		call = c.gateway.UnstageFiles
	}
	c.debugf("changelist: %s %d path(s)", op, len(paths))
	call(paths, func(err error) {
		if err != nil {
			c.debugf("changelist: %s failed: %v", op, err)
			c.reportError(err.Error())
			return
		}
		c.reportCompleted()
	})
}

// HandleRefreshTrigger fetches the backend status and installs it in the
// store. It is the entry point for file watchers, polling and manual refresh.
// A failed fetch leaves the current snapshot in place.
func (c *Coordinator) HandleRefreshTrigger() {
	c.gateway.FetchStatus(func(snapshot models.Snapshot, err error) {
		if err != nil {
			c.debugf("changelist: status refresh failed: %v", err)
			c.reportError(err.Error())
			return
		}
		c.store.Refresh(snapshot)
	})
}

// InitializeSortPersistence binds the view's sort order to the backing
// store and restores any saved order. Call it exactly once: a second call
// creates a second, independent slot that competes with the first.
func (c *Coordinator) InitializeSortPersistence() {
	c.sortSlot = clientstate.NewSlot(c.backing, c.sortKey, c.sortScope, clientstate.SlotHooks[models.SortSpec]{
		OnInit:     c.restoreSortSpec,
		Value:      c.currentSortSpec,
		HasChanged: c.sortSpecChanged,
	}, clientstate.WithSlotLogger(c.logf))
}

func (c *Coordinator) restoreSortSpec(spec models.SortSpec) {
	if len(spec) == 0 {
		return
	}
	c.view.SetSortSpec(spec)
	c.sortPrint = c.view.SortSpec().Fingerprint()
}

func (c *Coordinator) currentSortSpec() models.SortSpec {
	return c.view.SortSpec()
}

func (c *Coordinator) sortSpecChanged() bool {
	current := c.view.SortSpec().Fingerprint()
	if current == c.sortPrint {
		return false
	}
	c.sortPrint = current
	return true
}

// SortPersister returns the sort slot so it can join a checkpoint registry.
// It is nil until InitializeSortPersistence runs.
func (c *Coordinator) SortPersister() clientstate.Persister {
	if c.sortSlot == nil {
		return nil
	}
	return c.sortSlot
}

// Checkpoint persists the sort order if it changed since the last check.
func (c *Coordinator) Checkpoint() error {
	if c.sortSlot == nil {
		return nil
	}
	return c.sortSlot.CheckAndPersist()
}

func (c *Coordinator) reportError(message string) {
	if c.progress != nil {
		c.progress.OnError(message)
	}
}

func (c *Coordinator) reportCompleted() {
	if c.progress != nil {
		c.progress.OnCompleted()
	}
}

func (c *Coordinator) debugf(format string, args ...any) {
	if c.logf == nil {
		return
	}
	c.logf(format, args...)
}

func uniquePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
