package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Home        key.Binding
	End         key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Search      key.Binding
	Escape      key.Binding
	SwitchPane  key.Binding
	CopyID      key.Binding
	CopyURI     key.Binding
	Desc        key.Binding
	Favorite    key.Binding
	SaveFav     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "move")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Home:        key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		End:         key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Toggle:      key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("enter", "fold")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		SwitchPane:  key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "pane")),
		CopyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		CopyURI:     key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy uri")),
		Desc:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "descriptions")),
		Favorite:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "favorite")),
		SaveFav:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save favorite")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpSections lists the bindings shown in the help overlay.
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.PageDown, k.Home, k.End, k.SwitchPane}},
		{"Tree", []key.Binding{k.Toggle, k.ExpandAll, k.CollapseAll, k.Desc}},
		{"Search", []key.Binding{k.Search, k.Escape}},
		{"Categories", []key.Binding{k.Favorite, k.SaveFav}},
		{"Clipboard", []key.Binding{k.CopyID, k.CopyURI}},
		{"General", []key.Binding{k.Help, k.Quit}},
	}
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
