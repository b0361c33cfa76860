package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/hierview/pkg/metrics"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	defer metrics.Timer(metrics.UIRender)()

	var body string
	if m.focused == focusHelp {
		body = m.renderHelpOverlay()
	} else {
		body = m.renderPanes()
	}

	// Ensure the final output fits exactly in the terminal height
	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)

	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderSearchBar(),
		body,
		m.renderFooter(),
	))
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("hv")

	var parts []string
	if m.dataPath != "" {
		parts = append(parts, filepath.Base(m.dataPath))
	}
	parts = append(parts, fmt.Sprintf("%d categories", len(m.session.Categories())))
	if meta := m.dataset.Metadata; meta != nil {
		if meta.TotalItemsDiscovered > 0 {
			parts = append(parts, fmt.Sprintf("%d items", meta.TotalItemsDiscovered))
		}
		if meta.SubclassRelationships > 0 || meta.InstanceRelationships > 0 {
			parts = append(parts, fmt.Sprintf("%d subclass / %d instance edges",
				meta.SubclassRelationships, meta.InstanceRelationships))
		}
		if len(meta.ManuallyExcluded) > 0 {
			parts = append(parts, fmt.Sprintf("%d excluded", len(meta.ManuallyExcluded)))
		}
		if meta.Endpoint != "" {
			parts = append(parts, meta.Endpoint)
		}
	}

	info := " " + strings.Join(parts, " · ")
	avail := m.width - lipgloss.Width(title)
	return title + m.theme.MutedText.Render(truncate(info, avail))
}

func (m Model) renderSearchBar() string {
	if m.focused != focusSearch && m.session.Query() == "" {
		return m.theme.MutedText.Render(" / to search")
	}

	input := m.search.View()
	var count string
	switch {
	case !m.session.QueryActive():
		count = ""
	case m.session.ResultCount() == 0:
		count = "No items matching"
	case m.session.ResultCount() == 1:
		count = "1 result"
	default:
		count = fmt.Sprintf("%d results", m.session.ResultCount())
	}
	if count == "" {
		return input
	}
	return input + "  " + m.theme.MatchText.Render(count)
}

func (m Model) renderPanes() string {
	h := m.bodyHeight()
	catW, treeW, detailW := m.paneWidths()

	var panes []string
	if catW > 0 {
		panes = append(panes, panel(m.renderCategories(catW-2, h-2), catW, h, m.focused == focusCategories))
	}
	if treeW > 0 {
		panes = append(panes, panel(m.renderTree(treeW-2, h-2), treeW, h, m.focused == focusTree || m.focused == focusSearch))
	}
	if detailW > 0 {
		panes = append(panes, panel(m.renderDetail(detailW-2, h-2), detailW, h, false))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

// renderCategories renders the category list with a title line.
func (m Model) renderCategories(width, height int) string {
	cats := m.session.Categories()
	lines := []string{m.theme.PrimaryBold.Render("Categories")}
	if len(cats) == 0 {
		lines = append(lines, "", m.theme.MutedText.Render("Dataset has no categories"))
		return strings.Join(lines, "\n")
	}

	visible := max(height-1, 1)
	start := 0
	if m.catCursor >= visible {
		start = m.catCursor - visible + 1
	}
	end := min(start+visible, len(cats))
	active := m.session.ActiveCategoryID()

	for i := start; i < end; i++ {
		c := &cats[i]
		fav := "   "
		if n := m.cfg.CategoryFavoriteNumber(c.ID); n != 0 {
			fav = fmt.Sprintf("[%d]", n)
		}
		count := fmt.Sprintf(" %d", len(c.Subclasses)+len(c.Instances))
		labelW := width - 2 - len(fav) - 1 - len(count)
		text := fav + " " + padRight(truncate(categoryLabel(c), labelW), labelW)

		switch {
		case i == m.catCursor && m.focused == focusCategories:
			lines = append(lines, m.theme.Selected.Render(cursorMark+text+count))
		case c.ID == active:
			lines = append(lines, "  "+m.theme.PrimaryBold.Render(text)+m.theme.MutedText.Render(count))
		default:
			lines = append(lines, "  "+m.theme.Base.Render(text)+m.theme.MutedText.Render(count))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHelpOverlay() string {
	var sb strings.Builder
	sb.WriteString(m.theme.PrimaryBold.Render("Keyboard shortcuts"))
	sb.WriteString("\n\n")
	for _, section := range m.keys.helpSections() {
		sb.WriteString(m.theme.Base.Bold(true).Render(section.title))
		sb.WriteString("\n")
		for _, b := range section.bindings {
			h := b.Help()
			sb.WriteString(fmt.Sprintf("  %s %s\n", m.theme.PrimaryBold.Render(padRight(h.Key, 8)), h.Desc))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.theme.MutedText.Render("Press any key to close"))

	box := FocusedPanelStyle.Padding(1, 2).Render(sb.String())
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		var msgStyle lipgloss.Style
		prefix := "✓ "
		if m.statusIsError {
			prefix = "✗ "
			msgStyle = lipgloss.NewStyle().
				Background(ColorDangerBg).
				Foreground(ColorDanger).
				Bold(true).
				Padding(0, 2)
		} else {
			msgStyle = lipgloss.NewStyle().
				Background(ColorSuccessBg).
				Foreground(ColorSuccess).
				Bold(true).
				Padding(0, 2)
		}
		return msgStyle.Render(truncate(prefix+m.statusMsg, max(m.width-4, 1)))
	}

	var bindings []key.Binding
	switch m.focused {
	case focusSearch:
		return m.theme.MutedText.Render(" enter keep  esc clear")
	case focusCategories:
		bindings = []key.Binding{m.keys.Down, m.keys.Toggle, m.keys.SwitchPane, m.keys.Search, m.keys.Favorite, m.keys.Help, m.keys.Quit}
	default:
		bindings = []key.Binding{m.keys.Down, m.keys.Toggle, m.keys.ExpandAll, m.keys.CollapseAll, m.keys.Search, m.keys.CopyID, m.keys.SwitchPane, m.keys.Help, m.keys.Quit}
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, RenderKeyHint(h.Key, h.Desc))
	}
	footer := " " + strings.Join(hints, "  ")
	if m.reloader != nil {
		mode := "watching"
		if m.reloader.IsPolling() {
			mode = "polling"
		}
		footer += "  " + m.theme.MutedText.Render("["+mode+"]")
	}
	return footer
}
