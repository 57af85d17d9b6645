package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"gitloom/internal/config"
	"gitloom/internal/logging"
	"gitloom/internal/loom"
)

// maxLogEntries bounds the in-memory log buffer for the footer.
const maxLogEntries = 200

// refreshInterval is the periodic fallback refresh. The store watcher
// delivers changes immediately; the tick covers anything it missed.
const refreshInterval = 10 * time.Second

// Model represents the dashboard state. The dashboard is a read-only
// view over the loom store; every mutation happens through the CLI.
type Model struct {
	width     int
	height    int
	themeName string
	styles    *Styles

	repoRoot string
	store    *loom.Store
	loomList list.Model

	watcher    *StoreWatcher
	logMgr     *logging.Manager
	logCh      <-chan logging.LogEntry
	logEntries []logging.LogEntry
	logger     *logging.ScopedLogger

	lastRefresh time.Time
	err         error
}

// NewModel creates a dashboard model for one repository. logMgr may
// be nil; the log footer then stays empty.
func NewModel(cfg config.Config, repoRoot string, store *loom.Store, logMgr *logging.Manager) Model {
	styles := NewStyles(cfg.Theme)

	delegate := newLoomDelegate(styles)
	loomList := list.New([]list.Item{}, delegate, 0, 0)
	loomList.SetShowTitle(false)
	loomList.SetShowStatusBar(false)
	loomList.SetFilteringEnabled(false)
	loomList.SetShowHelp(false)

	logger := logging.NopLogger()
	if logMgr != nil {
		logger = logMgr.For("dashboard")
	}

	// A failed watcher degrades to tick-only refresh.
	watcher, err := NewStoreWatcher(loom.RecordsDir(repoRoot))
	if err != nil {
		logger.Warn("store watcher unavailable", "error", err)
		watcher = nil
	}

	m := Model{
		themeName: cfg.Theme,
		styles:    styles,
		repoRoot:  repoRoot,
		store:     store,
		loomList:  loomList,
		watcher:   watcher,
		logMgr:    logMgr,
		logger:    logger,
	}
	if logMgr != nil {
		m.logCh = logMgr.Entries()
	}
	return m
}

// SetLogSource replaces the footer's entry source. The dashboard
// prefers a tail of the shared log file over the in-process channel,
// so entries from concurrently running CLI invocations show up too.
func (m *Model) SetLogSource(ch <-chan logging.LogEntry) {
	m.logCh = ch
}

// Init returns the initial commands to run.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.refreshLooms(),
		m.tick(),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.waitForStoreChange())
	}
	if m.logCh != nil {
		cmds = append(cmds, consumeLogEntries(m.logCh))
	}
	return tea.Batch(cmds...)
}

// Close releases the store watcher.
func (m Model) Close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

// refreshLooms returns a command that reloads the record list.
func (m Model) refreshLooms() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		looms, err := store.List()
		if err != nil {
			return loomErrorMsg{err: err}
		}
		return loomsRefreshedMsg{looms: looms}
	}
}

// tick returns a command for the periodic fallback refresh.
func (m Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg{time: t}
	})
}

// waitForStoreChange returns a command that blocks on the next record
// change. It re-arms itself from Update after each message.
func (m Model) waitForStoreChange() tea.Cmd {
	watcher := m.watcher
	return func() tea.Msg {
		path, ok := watcher.Wait()
		if !ok {
			return nil
		}
		return storeChangedMsg{path: path}
	}
}

// consumeLogEntries blocks for one entry, then drains whatever else
// is already buffered so bursts arrive as one message.
func consumeLogEntries(ch <-chan logging.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		entries := []logging.LogEntry{entry}
		for {
			select {
			case e, more := <-ch:
				if !more {
					return logEntriesMsg{entries: entries}
				}
				entries = append(entries, e)
			default:
				return logEntriesMsg{entries: entries}
			}
		}
	}
}
