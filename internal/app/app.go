// Package app is the terminal changelist view built on bubbletea.
package app

import (
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/lazychangelist/internal/changelist"
	"github.com/chmouel/lazychangelist/internal/config"
	log "github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/models"
	"github.com/chmouel/lazychangelist/internal/theme"
	"github.com/chmouel/lazychangelist/internal/watch"
)

// Controller is the part of the coordinator the view drives directly.
type Controller interface {
	HandleRefreshTrigger()
	Checkpoint() error
}

// Model is the bubbletea model. It implements changelist.View and
// changelist.ProgressReporter; every method runs on the update loop.
type Model struct {
	config  *config.AppConfig
	theme   *theme.Theme
	keys    keyMap
	help    help.Model
	table   table.Model
	repo    string
	ctrl    Controller
	queue   *CallbackQueue
	watcher *watch.Watcher
	logf    func(string, ...any)

	entries  []models.StatusEntry // in display order
	shown    []models.StatusEntry // rows currently in the table
	sortSpec models.SortSpec
	marked   map[string]bool
	onStage  func(changelist.StageUnstageEvent)
	icons    map[string]string // glyph per file name

	statusMsg  string
	statusErr  bool
	refreshing bool

	autoRefreshStarted bool
	windowWidth        int
	windowHeight       int
	quitting           bool
}

// Options configure NewModel.
type Options struct {
	Config  *config.AppConfig
	Repo    string // shown in the header
	Queue   *CallbackQueue
	Watcher *watch.Watcher // optional, already started
}

var (
	_ changelist.View             = (*Model)(nil)
	_ changelist.ProgressReporter = (*Model)(nil)
)

// NewModel creates the view. Bind must be called before the program runs.
func NewModel(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	t := table.New(
		table.WithColumns(columnsFor(cfg.ShowIcons, 78, nil)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	m := &Model{
		config:   cfg,
		keys:     defaultKeyMap(),
		help:     help.New(),
		table:    t,
		repo:     opts.Repo,
		queue:    opts.Queue,
		watcher:  opts.Watcher,
		logf:     log.Prefixed("app: "),
		sortSpec: models.KnownSortSpec(cfg.SortOrder),
		marked:   make(map[string]bool),
	}
	if len(m.sortSpec) == 0 {
		m.sortSpec = models.DefaultSortSpec()
	}
	m.UpdateTheme(cfg.Theme)
	return m
}

// Bind attaches the coordinator driving this view.
func (m *Model) Bind(ctrl Controller) {
	m.ctrl = ctrl
}

// UpdateTheme refreshes UI styles for the selected theme.
func (m *Model) UpdateTheme(themeName string) {
	thm := theme.GetTheme(themeName)
	m.theme = thm

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(thm.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(thm.MutedFg)
	s.Cell = s.Cell.Foreground(thm.TextFg)
	s.Selected = s.Selected.
		Foreground(thm.AccentFg).
		Background(thm.Accent).
		Bold(true)
	m.table.SetStyles(s)

	m.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(thm.Accent)
	m.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(thm.MutedFg)
	m.help.Styles.FullKey = m.help.Styles.ShortKey
	m.help.Styles.FullDesc = m.help.Styles.ShortDesc
}

// SetEntries implements changelist.View.
func (m *Model) SetEntries(entries []models.StatusEntry) {
	m.refreshing = false
	m.entries = models.SortEntries(entries, m.sortSpec)

	present := make(map[string]bool, len(m.entries))
	for _, e := range m.entries {
		present[e.Path] = true
	}
	for p := range m.marked {
		if !present[p] {
			delete(m.marked, p)
		}
	}
	m.syncTable()
}

// Entries returns the rows in display order.
func (m *Model) Entries() []models.StatusEntry {
	return slices.Clone(m.entries)
}

// SortSpec implements changelist.View.
func (m *Model) SortSpec() models.SortSpec {
	return m.sortSpec.Clone()
}

// SetSortSpec implements changelist.View. Unknown columns are dropped; a
// spec with no known column leaves the current order alone.
func (m *Model) SetSortSpec(spec models.SortSpec) {
	known := models.KnownSortSpec(spec)
	if len(known) == 0 {
		m.debugf("ignoring sort order without known columns: %s", spec)
		return
	}
	m.sortSpec = known
	m.entries = models.SortEntries(m.entries, m.sortSpec)
	m.syncTable()
}

// OnStageUnstage implements changelist.View.
func (m *Model) OnStageUnstage(handler func(changelist.StageUnstageEvent)) {
	m.onStage = handler
}

// OnError implements changelist.ProgressReporter.
func (m *Model) OnError(message string) {
	m.refreshing = false
	m.statusMsg = message
	m.statusErr = true
}

// OnCompleted implements changelist.ProgressReporter. The index changed, so
// the listing is refreshed straight away.
func (m *Model) OnCompleted() {
	m.statusMsg = ""
	m.statusErr = false
	m.requestRefresh()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return refreshRequestMsg{} },
		m.queue.next(),
		m.startAutoRefresh(),
		m.checkpointTick(),
		m.waitForWatchEvent(),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case callbackMsg:
		if msg.fn != nil {
			msg.fn()
		}
		return m, m.queue.next()

	case refreshRequestMsg:
		m.requestRefresh()
		return m, nil

	case autoRefreshTickMsg:
		m.requestRefresh()
		return m, m.autoRefreshTick()

	case watchEventMsg:
		if m.watcher != nil {
			m.watcher.ResetWaiting()
		}
		m.requestRefresh()
		return m, m.waitForWatchEvent()

	case checkpointTickMsg:
		m.checkpoint()
		return m, m.checkpointTick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelection()
	case key.Matches(msg, m.keys.Stage):
		m.emit(m.selectedPaths(), false)
	case key.Matches(msg, m.keys.Unstage):
		m.emit(m.selectedPaths(), true)
	case key.Matches(msg, m.keys.StageAll):
		m.emit(m.unstagedPaths(), false)
	case key.Matches(msg, m.keys.Mark):
		m.toggleMark()
	case key.Matches(msg, m.keys.ClearMarks):
		clear(m.marked)
		m.syncTable()
	case key.Matches(msg, m.keys.SortPath):
		m.SetSortSpec(m.sortSpec.ToggleColumn(models.ColumnPath))
	case key.Matches(msg, m.keys.SortStatus):
		m.SetSortSpec(m.sortSpec.ToggleColumn(models.ColumnStatus))
	case key.Matches(msg, m.keys.SortStaged):
		m.SetSortSpec(m.sortSpec.ToggleColumn(models.ColumnStaged))
	case key.Matches(msg, m.keys.Refresh):
		m.requestRefresh()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selectedPaths returns the marked paths in display order, or the row under
// the cursor when nothing is marked.
func (m *Model) selectedPaths() []string {
	if len(m.marked) > 0 {
		paths := make([]string, 0, len(m.marked))
		for _, e := range m.entries {
			if m.marked[e.Path] {
				paths = append(paths, e.Path)
			}
		}
		return paths
	}
	if e, ok := m.cursorEntry(); ok {
		return []string{e.Path}
	}
	return nil
}

func (m *Model) unstagedPaths() []string {
	var paths []string
	for _, e := range m.entries {
		if e.HasUnstagedChanges() && e.Code != models.Ignored {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// toggleSelection unstages the selection when all of it is fully staged
// and stages it otherwise.
func (m *Model) toggleSelection() {
	paths := m.selectedPaths()
	if len(paths) == 0 {
		return
	}
	allStaged := true
	for _, p := range paths {
		if e, ok := m.entryFor(p); ok && e.HasUnstagedChanges() {
			allStaged = false
			break
		}
	}
	m.emit(paths, allStaged)
}

func (m *Model) emit(paths []string, unstage bool) {
	if len(paths) == 0 || m.onStage == nil {
		return
	}
	clear(m.marked)
	m.syncTable()
	m.onStage(changelist.StageUnstageEvent{Paths: paths, Unstage: unstage})
}

func (m *Model) toggleMark() {
	e, ok := m.cursorEntry()
	if !ok {
		return
	}
	if m.marked[e.Path] {
		delete(m.marked, e.Path)
	} else {
		m.marked[e.Path] = true
	}
	m.syncTable()
	m.table.MoveDown(1)
}

func (m *Model) cursorEntry() (models.StatusEntry, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.shown) {
		return models.StatusEntry{}, false
	}
	return m.shown[idx], true
}

func (m *Model) entryFor(path string) (models.StatusEntry, bool) {
	for _, e := range m.entries {
		if e.Path == path {
			return e, true
		}
	}
	return models.StatusEntry{}, false
}

func (m *Model) requestRefresh() {
	if m.ctrl == nil {
		return
	}
	m.refreshing = true
	m.ctrl.HandleRefreshTrigger()
}

func (m *Model) checkpoint() {
	if m.ctrl == nil {
		return
	}
	if err := m.ctrl.Checkpoint(); err != nil {
		m.debugf("checkpoint failed: %v", err)
		m.statusMsg = "Saving view state failed: " + err.Error()
		m.statusErr = true
	}
}

func (m *Model) quit() tea.Cmd {
	m.checkpoint()
	m.stopWatcher()
	m.quitting = true
	return tea.Quit
}

func (m *Model) debugf(format string, args ...any) {
	if m.logf == nil {
		return
	}
	m.logf(format, args...)
}
