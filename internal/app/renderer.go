package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/chmouel/lazychangelist/internal/models"
)

const (
	markWidth   = 1
	iconWidth   = 2
	statusWidth = 6
	stagedWidth = 6
	minPathCol  = 12
)

// columnsFor sizes the table columns to fill width. Titles carry an arrow
// for every active sort key.
func columnsFor(showIcons bool, width int, spec models.SortSpec) []table.Column {
	fixed := markWidth + statusWidth + stagedWidth
	cols := 4
	if showIcons {
		fixed += iconWidth
		cols++
	}
	// bubbles/table pads every cell by one space on each side
	pathWidth := max(minPathCol, width-fixed-cols*2)

	columns := []table.Column{{Title: "", Width: markWidth}}
	if showIcons {
		columns = append(columns, table.Column{Title: "", Width: iconWidth})
	}
	return append(columns,
		table.Column{Title: sortTitle("St", models.ColumnStatus, spec), Width: statusWidth},
		table.Column{Title: sortTitle("Idx", models.ColumnStaged, spec), Width: stagedWidth},
		table.Column{Title: sortTitle("Path", models.ColumnPath, spec), Width: pathWidth},
	)
}

func sortTitle(title, column string, spec models.SortSpec) string {
	for i, k := range spec {
		if k.ColumnID != column {
			continue
		}
		arrow := "▲"
		if !k.Ascending {
			arrow = "▼"
		}
		if i == 0 {
			return title + " " + arrow
		}
		return title + " " + arrow + fmt.Sprint(i+1)
	}
	return title
}

// syncTable rebuilds the rows, keeping the cursor on the same path when it
// is still listed.
func (m *Model) syncTable() {
	var cursorPath string
	if e, ok := m.cursorEntry(); ok {
		cursorPath = e.Path
	}

	columns := columnsFor(m.config.ShowIcons, m.tableWidth(), m.sortSpec)
	pathWidth := columns[len(columns)-1].Width

	m.shown = m.entries
	rows := make([]table.Row, 0, len(m.entries))
	cursor := 0
	for i, e := range m.entries {
		if e.Path == cursorPath {
			cursor = i
		}
		rows = append(rows, m.rowFor(e, pathWidth))
	}

	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m *Model) rowFor(e models.StatusEntry, pathWidth int) table.Row {
	mark := " "
	if m.marked[e.Path] {
		mark = "*"
	}
	staged := ""
	switch {
	case e.Partial:
		staged = "±"
	case e.Staged:
		staged = "✓"
	}
	label := e.Path
	if e.OrigPath != "" {
		label = e.OrigPath + " → " + e.Path
	}
	row := table.Row{mark}
	if m.config.ShowIcons {
		row = append(row, m.iconFor(e.Path))
	}
	return append(row,
		e.Code.Letter(),
		staged,
		truncate.StringWithTail(label, uint(max(pathWidth, 1)), "…"),
	)
}

// tableWidth is the width inside the table border.
func (m *Model) tableWidth() int {
	if m.windowWidth == 0 {
		return 78
	}
	return max(m.windowWidth-2, 1)
}

func (m *Model) layout() {
	if m.windowWidth == 0 || m.windowHeight == 0 {
		return
	}
	m.help.Width = m.windowWidth
	// header, status line, help and the table border
	chrome := 3 + lipgloss.Height(m.help.View(m.keys)) + 2
	m.table.SetWidth(m.tableWidth())
	m.table.SetHeight(max(3, m.windowHeight-chrome))
	m.syncTable()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.windowWidth == 0 || m.windowHeight == 0 {
		return "Loading..."
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border)

	body := m.table.View()
	if len(m.entries) == 0 {
		body = lipgloss.NewStyle().
			Foreground(m.theme.MutedFg).
			Width(m.windowWidth - 2).
			Height(m.table.Height()).
			Render("Working tree clean.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		border.Render(body),
		m.renderStatusLine(),
		m.help.View(m.keys),
	)
}

func (m *Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(m.theme.AccentFg).
		Background(m.theme.Accent).
		Bold(true).
		Padding(0, 1).
		Render("lazychangelist")

	staged, unstaged, untracked := 0, 0, 0
	for _, e := range m.entries {
		switch {
		case e.Code == models.Untracked:
			untracked++
		case e.Staged:
			staged++
		default:
			unstaged++
		}
	}
	counts := strings.Join([]string{
		lipgloss.NewStyle().Foreground(m.theme.Staged).Render(fmt.Sprintf("%d staged", staged)),
		lipgloss.NewStyle().Foreground(m.theme.Unstaged).Render(fmt.Sprintf("%d unstaged", unstaged)),
		lipgloss.NewStyle().Foreground(m.theme.Untracked).Render(fmt.Sprintf("%d untracked", untracked)),
	}, " · ")

	repo := lipgloss.NewStyle().Foreground(m.theme.TextFg).Render(m.repo)
	sortInfo := lipgloss.NewStyle().Foreground(m.theme.MutedFg).Render("sort: " + m.sortSpec.String())
	line := strings.Join([]string{title, repo, counts, sortInfo}, "  ")
	return truncate.String(line, uint(max(m.windowWidth, 1)))
}

func (m *Model) renderStatusLine() string {
	style := lipgloss.NewStyle().Foreground(m.theme.MutedFg)
	text := m.statusMsg
	switch {
	case m.statusErr:
		style = lipgloss.NewStyle().Foreground(m.theme.ErrorFg).Bold(true)
	case m.refreshing:
		text = "Refreshing…"
	case len(m.marked) > 0:
		text = fmt.Sprintf("%d marked", len(m.marked))
	}
	return style.Render(truncate.StringWithTail(text, uint(max(m.windowWidth, 1)), "…"))
}
