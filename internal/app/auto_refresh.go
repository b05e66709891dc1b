package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// after delivers msg once interval has elapsed; a non-positive interval
// disables the timer.
func after(interval time.Duration, msg tea.Msg) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return msg })
}

// startAutoRefresh arms the polling timer at most once per model.
func (m *Model) startAutoRefresh() tea.Cmd {
	if m.autoRefreshStarted {
		return nil
	}
	cmd := m.autoRefreshTick()
	m.autoRefreshStarted = cmd != nil
	return cmd
}

func (m *Model) autoRefreshInterval() time.Duration {
	if m.config == nil {
		return 0
	}
	return m.config.RefreshInterval()
}

func (m *Model) autoRefreshTick() tea.Cmd {
	return after(m.autoRefreshInterval(), autoRefreshTickMsg{})
}

func (m *Model) checkpointTick() tea.Cmd {
	if m.config == nil {
		return nil
	}
	return after(m.config.CheckpointInterval(), checkpointTickMsg{})
}

// waitForWatchEvent blocks on the watcher's debounced channel. A closed
// channel ends the chain.
func (m *Model) waitForWatchEvent() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	events := m.watcher.NextEvent()
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return watchEventMsg{}
	}
}

func (m *Model) stopWatcher() {
	if m.watcher != nil && m.watcher.Started() {
		m.watcher.Stop()
	}
}
