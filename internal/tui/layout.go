// pattern: Functional Core

package tui

// Region defines a rectangular area within the terminal.
type Region struct {
	X      int // left position (0-indexed)
	Y      int // top position (0-indexed)
	Width  int // width in cells
	Height int // height in lines
}

// Layout holds computed regions for all UI components.
type Layout struct {
	Header    Region // title + repository line
	Content   Region // loom list
	Separator Region // rule above the log footer (1 line when logs shown)
	Logs      Region // log footer
	StatusBar Region // help + status (1 line)
}

// Fixed heights for chrome elements.
const (
	headerHeight    = 2
	statusBarHeight = 1
	separatorHeight = 1
	logFooterHeight = 6
)

// ComputeLayout calculates regions from the terminal dimensions. The
// log footer keeps a fixed height and is dropped entirely when the
// terminal is too short to show the list alongside it.
func ComputeLayout(width, height int) Layout {
	available := height - headerHeight - statusBarHeight

	logsHeight := logFooterHeight
	sepHeight := separatorHeight
	if available < logsHeight+separatorHeight+4 {
		logsHeight = 0
		sepHeight = 0
	}

	contentHeight := available - logsHeight - sepHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	y := 0
	header := Region{X: 0, Y: y, Width: width, Height: headerHeight}
	y += headerHeight

	content := Region{X: 0, Y: y, Width: width, Height: contentHeight}
	y += contentHeight

	var separator, logs Region
	if logsHeight > 0 {
		separator = Region{X: 0, Y: y, Width: width, Height: sepHeight}
		y += sepHeight
		logs = Region{X: 0, Y: y, Width: width, Height: logsHeight}
		y += logsHeight
	}

	statusBar := Region{X: 0, Y: y, Width: width, Height: statusBarHeight}

	return Layout{
		Header:    header,
		Content:   content,
		Separator: separator,
		Logs:      logs,
		StatusBar: statusBar,
	}
}

// ContentListHeight returns the height available for the loom list
// after accounting for list chrome.
func (l Layout) ContentListHeight() int {
	h := l.Content.Height - 1
	if h < 1 {
		h = 1
	}
	return h
}

// LogLineCount returns how many log lines fit in the footer, zero
// when the footer is hidden.
func (l Layout) LogLineCount() int {
	return l.Logs.Height
}
