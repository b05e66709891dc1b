package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Stage      key.Binding
	Unstage    key.Binding
	StageAll   key.Binding
	Mark       key.Binding
	ClearMarks key.Binding
	SortPath   key.Binding
	SortStatus key.Binding
	SortStaged key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "stage/unstage"),
		),
		Stage: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stage"),
		),
		Unstage: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unstage"),
		),
		StageAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "stage all"),
		),
		Mark: key.NewBinding(
			key.WithKeys("m", "v"),
			key.WithHelp("m", "mark"),
		),
		ClearMarks: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear marks"),
		),
		SortPath: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "sort path"),
		),
		SortStatus: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "sort status"),
		),
		SortStaged: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "sort staged"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Mark, k.SortPath, k.SortStatus, k.SortStaged, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Mark, k.ClearMarks},
		{k.Toggle, k.Stage, k.Unstage, k.StageAll},
		{k.SortPath, k.SortStatus, k.SortStaged},
		{k.Refresh, k.Help, k.Quit},
	}
}
