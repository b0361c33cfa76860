// Package ui implements the hv terminal browser: a category list, a search
// box and the expandable tree of the selected category, with a detail pane
// on wide terminals.
package ui

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/hierview/pkg/config"
	"github.com/vanderheijden86/hierview/pkg/debug"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/session"
	"github.com/vanderheijden86/hierview/pkg/watcher"
)

// Layout thresholds (terminal columns).
const (
	SplitViewThreshold = 80
	WideViewThreshold  = 140
	MinCategoryWidth   = 20
)

// focus represents which UI element has keyboard focus
type focus int

const (
	focusCategories focus = iota
	focusTree
	focusSearch
	focusHelp
)

func (f focus) String() string {
	switch f {
	case focusCategories:
		return "categories"
	case focusTree:
		return "tree"
	case focusSearch:
		return "search"
	case focusHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ReloadMsg carries the outcome of reloading the dataset after the file
// changed on disk.
type ReloadMsg watcher.Reload

// WatchReloadCmd waits for the next reload outcome.
func WatchReloadCmd(r *watcher.Reloader) tea.Cmd {
	return func() tea.Msg {
		return ReloadMsg(<-r.Reloads())
	}
}

// Option configures a Model.
type Option func(*Model)

// WithConfig applies UI preferences from cfg. save persists favorites
// added from the category list; nil disables saving.
func WithConfig(cfg config.Config, save func(config.Config) error) Option {
	return func(m *Model) {
		m.cfg = cfg
		m.saveConfig = save
	}
}

// WithReloader makes the model apply reloads delivered by r.
func WithReloader(r *watcher.Reloader) Option {
	return func(m *Model) {
		m.reloader = r
	}
}

// WithDataPath sets the dataset path shown in the header.
func WithDataPath(path string) Option {
	return func(m *Model) {
		m.dataPath = path
	}
}

// WithInitialCategory preselects a category, overriding the configured
// default.
func WithInitialCategory(id string) Option {
	return func(m *Model) {
		m.initialCategory = id
	}
}

// WithInitialQuery starts with a search query applied.
func WithInitialQuery(q string) Option {
	return func(m *Model) {
		m.initialQuery = q
	}
}

// Model is the bubbletea model for the browser.
type Model struct {
	dataset  *model.Dataset
	dataPath string
	session  *session.Session
	reloader *watcher.Reloader

	cfg             config.Config
	saveConfig      func(config.Config) error
	initialCategory string
	initialQuery    string

	theme  Theme
	keys   keyMap
	search textinput.Model

	// Detail pane rendering, shared across Model copies.
	mdRenderer *glamour.TermRenderer
	detail     *detailCache

	focused         focus
	focusBeforeHelp focus
	catCursor       int
	treeCursor      int
	treeOffset      int
	rows            []session.Row

	showDescriptions bool
	width            int
	height           int
	ready            bool

	statusMsg     string
	statusIsError bool

	copyToClipboard func(string) error
}

// NewModel creates the browser over ds.
func NewModel(ds *model.Dataset, opts ...Option) Model {
	if ds == nil {
		ds = &model.Dataset{}
	}
	m := Model{
		dataset:         ds,
		cfg:             config.DefaultConfig(),
		theme:           DefaultTheme(lipgloss.DefaultRenderer()),
		keys:            defaultKeyMap(),
		detail:          &detailCache{},
		focused:         focusTree,
		copyToClipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.showDescriptions = m.cfg.UI.DescriptionsShown()

	ti := textinput.New()
	ti.Placeholder = "Search labels and descriptions"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	m.search = ti

	category := m.initialCategory
	if category == "" {
		category = m.cfg.UI.DefaultCategory
	}
	if _, ok := ds.FindCategory(category); !ok && len(ds.Hierarchy) > 0 {
		debug.LogIf(category != "", "ui: category %q not found, selecting first", category)
		category = ds.Hierarchy[0].ID
	}

	m.session = session.New(ds.Hierarchy,
		session.WithCategory(category),
		session.WithClearQueryOnSelect(m.cfg.UI.ClearQueryOnCategoryChange),
	)
	if m.initialQuery != "" {
		m.session.SetQuery(m.initialQuery)
		m.search.SetValue(m.initialQuery)
	}
	if len(ds.Hierarchy) == 0 {
		m.focused = focusCategories
	}
	m.syncCategoryCursor()
	m.refreshRows()
	return m
}

// Session exposes the browse session, mainly for tests and robot output.
func (m Model) Session() *session.Session {
	return m.session
}

func (m Model) Init() tea.Cmd {
	if m.reloader != nil {
		return WatchReloadCmd(m.reloader)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case ReloadMsg:
		m.applyReload(watcher.Reload(msg))
		if m.reloader != nil {
			return m, WatchReloadCmd(m.reloader)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focused == focusSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.focused {
	case focusHelp:
		m.focused = m.focusBeforeHelp
		return m, nil
	case focusSearch:
		return m.handleSearchKey(msg)
	}

	// Any other key dismisses the previous status message.
	m.statusMsg = ""
	m.statusIsError = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.focusBeforeHelp = m.focused
		m.focused = focusHelp
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.focused = focusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Escape):
		if m.session.Query() != "" {
			m.setQuery("")
			m.setStatus("Search cleared", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focused == focusCategories {
			m.focused = focusTree
		} else {
			m.focused = focusCategories
		}
		return m, nil

	case key.Matches(msg, m.keys.Desc):
		m.showDescriptions = !m.showDescriptions
		return m, nil

	case key.Matches(msg, m.keys.Favorite):
		m.jumpToFavorite(int(msg.Runes[0] - '0'))
		return m, nil

	case key.Matches(msg, m.keys.CopyID):
		m.copySelectedID()
		return m, nil

	case key.Matches(msg, m.keys.CopyURI):
		m.copySelectedURI()
		return m, nil
	}

	if m.focused == focusCategories {
		m.handleCategoryKey(msg)
	} else {
		m.handleTreeKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.setQuery("")
		m.focused = focusTree
		return m, nil
	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		m.search.Blur()
		m.focused = focusTree
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setQuery(m.search.Value())
	return m, cmd
}

func (m *Model) handleCategoryKey(msg tea.KeyMsg) {
	n := len(m.session.Categories())
	if n == 0 {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selectCategoryAt(m.catCursor - 1)
	case key.Matches(msg, m.keys.Down):
		m.selectCategoryAt(m.catCursor + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.selectCategoryAt(m.catCursor - m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.selectCategoryAt(m.catCursor + m.pageSize())
	case key.Matches(msg, m.keys.Home):
		m.selectCategoryAt(0)
	case key.Matches(msg, m.keys.End):
		m.selectCategoryAt(n - 1)
	case key.Matches(msg, m.keys.Toggle):
		m.selectCategoryAt(m.catCursor)
		m.focused = focusTree
	case key.Matches(msg, m.keys.SaveFav):
		m.saveFavorite()
	}
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveTreeCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveTreeCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveTreeCursor(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.moveTreeCursor(m.pageSize())
	case key.Matches(msg, m.keys.Home):
		m.moveTreeCursor(-len(m.rows))
	case key.Matches(msg, m.keys.End):
		m.moveTreeCursor(len(m.rows))
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.keys.ExpandAll):
		m.setAllExpanded(true)
	case key.Matches(msg, m.keys.CollapseAll):
		m.setAllExpanded(false)
	}
}

// setQuery applies a query to the session and keeps the search box in
// sync with it.
func (m *Model) setQuery(q string) {
	m.session.SetQuery(q)
	if m.search.Value() != q {
		m.search.SetValue(q)
	}
	m.refreshRows()
}

func (m *Model) selectCategoryAt(i int) {
	cats := m.session.Categories()
	if len(cats) == 0 {
		return
	}
	i = clamp(i, 0, len(cats)-1)
	m.catCursor = i
	prev := m.session.ActiveCategoryID()
	m.session.SelectCategory(cats[i].ID)
	if m.session.ActiveCategoryID() != prev {
		m.treeCursor, m.treeOffset = 0, 0
		if m.search.Value() != m.session.Query() {
			m.search.SetValue(m.session.Query())
		}
	}
	m.refreshRows()
}

func (m *Model) syncCategoryCursor() {
	active := m.session.ActiveCategoryID()
	for i, c := range m.session.Categories() {
		if c.ID == active {
			m.catCursor = i
			return
		}
	}
	m.catCursor = clamp(m.catCursor, 0, max(len(m.session.Categories())-1, 0))
}

func (m *Model) jumpToFavorite(n int) {
	id, ok := m.cfg.FavoriteCategory(n)
	if !ok {
		m.setStatus(fmt.Sprintf("No favorite category on %d", n), true)
		return
	}
	for i, c := range m.session.Categories() {
		if c.ID == id {
			m.selectCategoryAt(i)
			m.setStatus(fmt.Sprintf("Switched to %s", categoryLabel(&c)), false)
			return
		}
	}
	m.setStatus(fmt.Sprintf("Favorite %d (%s) is not in this dataset", n, id), true)
}

func (m *Model) saveFavorite() {
	root, ok := m.session.ActiveRoot()
	if !ok {
		return
	}
	if n := m.cfg.CategoryFavoriteNumber(root.ID); n != 0 {
		m.setStatus(fmt.Sprintf("%s is already favorite %d", categoryLabel(root), n), false)
		return
	}
	slot := 0
	for n := 1; n <= 9; n++ {
		if _, taken := m.cfg.FavoriteCategory(n); !taken {
			slot = n
			break
		}
	}
	if slot == 0 {
		m.setStatus("All favorite slots 1-9 are taken", true)
		return
	}
	m.cfg.SetFavorite(slot, root.ID)
	if m.saveConfig != nil {
		if err := m.saveConfig(m.cfg); err != nil {
			m.setStatus(fmt.Sprintf("Saving config: %v", err), true)
			return
		}
	}
	m.setStatus(fmt.Sprintf("Saved %s as favorite %d", categoryLabel(root), slot), false)
}

func (m *Model) toggleSelected() {
	row, ok := m.selectedRow()
	if !ok || !row.HasChildren() {
		return
	}
	if !m.session.Toggle(row.Key) {
		if m.session.QueryActive() {
			m.setStatus("Everything stays expanded while searching (esc clears)", false)
		}
		return
	}
	m.refreshRows()
}

func (m *Model) setAllExpanded(expanded bool) {
	if m.session.QueryActive() {
		m.setStatus("Everything stays expanded while searching (esc clears)", false)
		return
	}
	if expanded {
		m.session.Expansion().ExpandAll()
	} else {
		m.session.Expansion().CollapseAll()
	}
	m.refreshRows()
}

func (m *Model) copySelectedID() {
	var id string
	if m.focused == focusCategories {
		if root, ok := m.session.ActiveRoot(); ok {
			id = root.ID
		}
	} else if row, ok := m.selectedRow(); ok {
		id = row.Node.ID
	}
	if id == "" {
		return
	}
	if err := m.copyToClipboard(id); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", id), false)
}

func (m *Model) copySelectedURI() {
	node := m.selectedNode()
	if node == nil {
		return
	}
	if len(node.ExactMatch) == 0 {
		m.setStatus(fmt.Sprintf("%s has no exact-match URI", node.ID), true)
		return
	}
	uri := node.ExactMatch[0]
	if err := m.copyToClipboard(uri); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", uri), false)
}

// applyReload swaps in a reloaded dataset. Category, query and expansion
// carry over wherever the ids still match.
func (m *Model) applyReload(r watcher.Reload) {
	if r.Err != nil {
		if errors.Is(r.Err, watcher.ErrFileRemoved) {
			m.setStatus("Dataset file was removed; showing the last loaded data", true)
		} else {
			m.setStatus(fmt.Sprintf("Reload error: %v", r.Err), true)
		}
		return
	}
	if r.Dataset == nil {
		return
	}
	m.dataset = r.Dataset
	m.detail.reset()
	m.session.SetHierarchy(r.Dataset.Hierarchy)
	if _, ok := m.session.ActiveRoot(); !ok && len(r.Dataset.Hierarchy) > 0 {
		m.session.SelectCategory(r.Dataset.Hierarchy[0].ID)
	}
	m.syncCategoryCursor()
	m.refreshRows()
	m.setStatus(fmt.Sprintf("Reloaded %d categories", len(r.Dataset.Hierarchy)), false)
}

func (m *Model) setStatus(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
}

// layout recomputes size-dependent state after a resize.
func (m *Model) layout() {
	m.search.Width = max(m.width-20, 10)
	if _, _, detailW := m.paneWidths(); detailW > 0 {
		m.mdRenderer = newMarkdownRenderer(detailW - 4)
		m.detail.reset()
	}
	m.ensureTreeCursorVisible()
}

// bodyHeight is the height left for panes: header, search line and
// footer take one row each.
func (m Model) bodyHeight() int {
	return max(m.height-3, 1)
}

// listHeight is the number of rows visible inside a pane. Borders and
// the pane title take three rows.
func (m Model) listHeight() int {
	return max(m.bodyHeight()-3, 1)
}

func (m Model) pageSize() int {
	return max(m.listHeight()-1, 1)
}

// paneWidths splits the terminal width into category, tree and detail
// panes. A zero width means the pane is hidden.
func (m Model) paneWidths() (catW, treeW, detailW int) {
	if m.width < SplitViewThreshold {
		if m.focused == focusCategories {
			return m.width, 0, 0
		}
		return 0, m.width, 0
	}
	ratio := m.cfg.UI.SplitRatio
	if ratio <= 0 {
		ratio = config.DefaultConfig().UI.SplitRatio
	}
	catW = max(int(float64(m.width)*ratio), MinCategoryWidth)
	rest := m.width - catW
	if m.width >= WideViewThreshold {
		detailW = rest * 2 / 5
	}
	return catW, rest - detailW, detailW
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func categoryLabel(n *model.HierarchyNode) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
