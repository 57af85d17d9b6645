// pattern: Imperative Shell

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"gitloom/internal/logging"
	"gitloom/internal/loom"
)

// View renders the dashboard.
func (m Model) View() string {
	layout := ComputeLayout(m.width, m.height)

	header := m.renderHeader(layout)

	var content string
	if len(m.loomList.Items()) == 0 {
		content = lipgloss.NewStyle().
			Width(layout.Content.Width).
			Height(layout.Content.Height).
			Padding(1, 2).
			Render(m.styles.InfoStyle().Render("No looms. Create one with 'gitloom loom create'."))
	} else {
		content = lipgloss.NewStyle().
			Width(layout.Content.Width).
			Height(layout.Content.Height).
			Render(m.loomList.View())
	}

	parts := []string{header, content}

	if layout.LogLineCount() > 0 {
		separator := m.styles.SeparatorStyle().
			Width(layout.Separator.Width).
			Render(strings.Repeat("─", max(layout.Separator.Width, 1)))
		parts = append(parts, separator, m.renderLogFooter(layout))
	}

	parts = append(parts, m.renderStatusBar(layout.StatusBar.Width))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader(layout Layout) string {
	title := m.styles.TitleStyle().Render("gitloom")
	repo := m.styles.SubtitleStyle().Render(filepath.Base(m.repoRoot))

	counts := m.stateCounts()
	summary := m.styles.SubtitleStyle().Render(counts)

	left := title + " " + repo
	spacer := layout.Header.Width - lipgloss.Width(left) - lipgloss.Width(summary) - 1
	if spacer < 1 {
		spacer = 1
	}

	line := left + strings.Repeat(" ", spacer) + summary
	return lipgloss.NewStyle().Width(layout.Header.Width).Render(line)
}

// stateCounts summarizes the list as "N looms · A active · F failed",
// dropping zero terms.
func (m Model) stateCounts() string {
	total := len(m.loomList.Items())
	if total == 0 {
		return "no looms"
	}

	byState := make(map[loom.State]int)
	for _, item := range m.loomList.Items() {
		if li, ok := item.(loomItem); ok {
			byState[li.md.State]++
		}
	}

	noun := "looms"
	if total == 1 {
		noun = "loom"
	}
	parts := []string{fmt.Sprintf("%d %s", total, noun)}
	for _, state := range []loom.State{loom.StateActive, loom.StatePending, loom.StateCompleted, loom.StateFailed} {
		if n := byState[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderLogFooter(layout Layout) string {
	entries := m.logEntries
	if len(entries) > layout.LogLineCount() {
		entries = entries[len(entries)-layout.LogLineCount():]
	}

	var lines []string
	for _, entry := range entries {
		lines = append(lines, m.renderLogEntry(entry, layout.Logs.Width))
	}
	if len(lines) == 0 {
		lines = []string{m.styles.HelpStyle().Render("no log entries")}
	}

	return lipgloss.NewStyle().
		Width(layout.Logs.Width).
		Height(layout.Logs.Height).
		Render(strings.Join(lines, "\n"))
}

// renderLogEntry formats one entry for the footer. Messages may carry
// escape sequences captured from agent output; they are stripped so a
// stray sequence cannot corrupt the dashboard.
func (m Model) renderLogEntry(entry logging.LogEntry, width int) string {
	ts := m.styles.LogTimestampStyle().Render(entry.Timestamp.Format("15:04:05"))
	level := m.styles.LogLevelStyle(entry.Level).Render(entry.Level)
	scope := m.styles.LogScopeStyle().Render("[" + entry.Scope + "]")

	message := ansi.Strip(entry.Message)
	line := fmt.Sprintf("%s %s %s %s", ts, level, scope, message)

	if width > 0 && lipgloss.Width(line) > width {
		line = ansi.Truncate(line, width-1, "…")
	}
	return line
}

func (m Model) renderStatusBar(width int) string {
	var status string
	if m.err != nil {
		status = m.styles.ErrorStyle().Render("✗ " + m.err.Error())
	} else if !m.lastRefresh.IsZero() {
		status = m.styles.SubtitleStyle().Render("refreshed " + m.lastRefresh.Format("15:04:05"))
	}

	help := m.styles.HelpStyle().Render("↑/↓: navigate • r: refresh • q: quit")

	statusWidth := lipgloss.Width(status)
	helpWidth := lipgloss.Width(help)
	spacerWidth := width - statusWidth - helpWidth - 2
	if spacerWidth < 1 {
		spacerWidth = 1
	}

	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		status,
		strings.Repeat(" ", spacerWidth),
		help,
	)
}
