// pattern: Imperative Shell

package tui

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gitloom/internal/loom"
)

// loomItem wraps a loom record for display in a list.
type loomItem struct {
	md *loom.Metadata
}

// Title returns the display name: the worktree directory, falling
// back to the branch when the record carries no path.
func (i loomItem) Title() string {
	if i.md.WorktreePath != "" {
		return filepath.Base(i.md.WorktreePath)
	}
	return i.md.BranchName
}

// Description returns the detail line: state, branch and issue.
func (i loomItem) Description() string {
	desc := fmt.Sprintf("%s | %s", i.md.State, i.md.BranchName)
	if i.md.IssueKey != "" {
		desc += fmt.Sprintf(" | #%s", i.md.IssueKey)
	}
	if i.md.Title != "" {
		desc += " " + i.md.Title
	}
	return desc
}

// FilterValue returns the value to filter on.
func (i loomItem) FilterValue() string {
	return i.md.BranchName
}

// loomDelegate handles rendering of loom items in a list.
type loomDelegate struct {
	styles *Styles
}

func newLoomDelegate(styles *Styles) loomDelegate {
	return loomDelegate{styles: styles}
}

// Height returns the height of a single item.
func (d loomDelegate) Height() int {
	return 2
}

// Spacing returns the spacing between items.
func (d loomDelegate) Spacing() int {
	return 1
}

// Update handles item-specific updates.
func (d loomDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a single loom item with a state-colored bullet.
func (d loomDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	li, ok := item.(loomItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(d.styles.flavor.Text().Hex))
	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(d.styles.flavor.Subtext0().Hex))

	if isSelected {
		titleStyle = titleStyle.
			Bold(true).
			Foreground(lipgloss.Color(d.styles.flavor.Mauve().Hex))
		descStyle = descStyle.
			Foreground(lipgloss.Color(d.styles.flavor.Overlay0().Hex))
	}

	indicator := "  "
	if isSelected {
		indicator = lipgloss.NewStyle().
			Foreground(lipgloss.Color(d.styles.flavor.Mauve().Hex)).
			Render("▸ ")
	}

	bullet := d.styles.StateStyle(li.md.State).Render("●")
	title := titleStyle.Render(li.Title())
	desc := descStyle.Render(li.Description())

	_, _ = fmt.Fprintf(w, "%s%s %s\n%s%s", indicator, bullet, title, "    ", desc)
}

// toListItems converts loom records to list items.
func toListItems(looms []*loom.Metadata) []list.Item {
	items := make([]list.Item, len(looms))
	for i, md := range looms {
		items[i] = loomItem{md: md}
	}
	return items
}
