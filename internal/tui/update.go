// pattern: Imperative Shell

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gitloom/internal/logging"
	"gitloom/internal/loom"
)

// loomsRefreshedMsg delivers a reloaded record list.
type loomsRefreshedMsg struct {
	looms []*loom.Metadata
}

// loomErrorMsg reports a failed store read.
type loomErrorMsg struct {
	err error
}

// storeChangedMsg is sent when a record file changes on disk.
type storeChangedMsg struct {
	path string
}

// tickMsg drives the periodic fallback refresh.
type tickMsg struct {
	time time.Time
}

// logEntriesMsg delivers log entries from the logging channel.
type logEntriesMsg struct {
	entries []logging.LogEntry
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		layout := ComputeLayout(m.width, m.height)
		m.loomList.SetSize(m.width-4, layout.ContentListHeight())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case "r":
			return m, m.refreshLooms()
		}

		var cmd tea.Cmd
		m.loomList, cmd = m.loomList.Update(msg)
		return m, cmd

	case loomsRefreshedMsg:
		m.err = nil
		m.lastRefresh = time.Now()
		m.loomList.SetItems(toListItems(msg.looms))
		return m, nil

	case loomErrorMsg:
		m.err = msg.err
		return m, nil

	case storeChangedMsg:
		m.logger.Debug("record changed", "path", msg.path)
		cmds := []tea.Cmd{m.refreshLooms()}
		if m.watcher != nil {
			cmds = append(cmds, m.waitForStoreChange())
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		return m, tea.Batch(m.refreshLooms(), m.tick())

	case logEntriesMsg:
		m.logEntries = append(m.logEntries, msg.entries...)
		if len(m.logEntries) > maxLogEntries {
			m.logEntries = m.logEntries[len(m.logEntries)-maxLogEntries:]
		}
		if m.logCh != nil {
			return m, consumeLogEntries(m.logCh)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.loomList, cmd = m.loomList.Update(msg)
	return m, cmd
}
