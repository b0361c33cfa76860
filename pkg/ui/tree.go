package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/hierview/pkg/expansion"
	"github.com/vanderheijden86/hierview/pkg/export"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/session"
)

// Fold indicators.
const (
	foldExpanded  = "▾ "
	foldCollapsed = "▸ "
	foldLeaf      = "  "
	cursorMark    = "▶ "
)

// refreshRows recomputes the visible rows and keeps the cursor on the same
// position when it is still visible.
func (m *Model) refreshRows() {
	var current expansion.Key
	if row, ok := m.selectedRow(); ok {
		current = row.Key
	}

	m.rows = m.session.VisibleRows()

	m.treeCursor = clamp(m.treeCursor, 0, max(len(m.rows)-1, 0))
	if current != "" {
		for i := range m.rows {
			if m.rows[i].Key == current {
				m.treeCursor = i
				break
			}
		}
	}
	m.ensureTreeCursorVisible()
}

func (m *Model) moveTreeCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.treeCursor = clamp(m.treeCursor+delta, 0, len(m.rows)-1)
	m.ensureTreeCursorVisible()
}

func (m *Model) ensureTreeCursorVisible() {
	h := m.listHeight()
	if m.treeCursor < m.treeOffset {
		m.treeOffset = m.treeCursor
	}
	if m.treeCursor >= m.treeOffset+h {
		m.treeOffset = m.treeCursor - h + 1
	}
	m.treeOffset = clamp(m.treeOffset, 0, max(len(m.rows)-h, 0))
}

func (m Model) selectedRow() (session.Row, bool) {
	if m.treeCursor < 0 || m.treeCursor >= len(m.rows) {
		return session.Row{}, false
	}
	return m.rows[m.treeCursor], true
}

// selectedNode is the node the detail pane and clipboard act on: the
// category root while the category list is focused, the tree cursor
// otherwise.
func (m Model) selectedNode() *model.HierarchyNode {
	if m.focused == focusCategories {
		root, _ := m.session.ActiveRoot()
		return root
	}
	if row, ok := m.selectedRow(); ok {
		return row.Node
	}
	return nil
}

// rowAncestors returns the labels from the category root down to the
// parent of rows[i].
func (m Model) rowAncestors(i int) []string {
	var path []string
	if root, ok := m.session.ActiveRoot(); ok {
		path = append(path, categoryLabel(root))
	}
	if i < 0 || i >= len(m.rows) {
		return path
	}
	var chain []string
	depth := m.rows[i].Depth
	for j := i - 1; j >= 0 && depth > 0; j-- {
		if m.rows[j].Depth == depth-1 {
			chain = append(chain, categoryLabel(m.rows[j].Node))
			depth--
		}
	}
	for k := len(chain) - 1; k >= 0; k-- {
		path = append(path, chain[k])
	}
	return path
}

// segment is a piece of a tree row with its style.
type segment struct {
	text  string
	style *lipgloss.Style
}

// rowSegments lays out a row as styled pieces, left to right.
func (m Model) rowSegments(row session.Row) []segment {
	t := &m.theme
	segs := []segment{{text: export.TreePrefix(row.Guides, row.Last), style: &t.MutedText}}

	switch {
	case !row.HasChildren():
		segs = append(segs, segment{text: foldLeaf})
	case row.Expanded:
		segs = append(segs, segment{text: foldExpanded, style: &t.PrimaryBold})
	default:
		segs = append(segs, segment{text: foldCollapsed, style: &t.PrimaryBold})
	}

	if row.Edge == session.EdgeInstance {
		segs = append(segs, segment{text: export.InstanceMarker, style: &t.InstanceText})
	}

	label := segment{text: categoryLabel(row.Node), style: &t.Base}
	if row.Match {
		label.style = &t.MatchText
	}
	segs = append(segs, label)

	if row.Node.IsCircular() {
		segs = append(segs, segment{text: " " + export.CircularMarker, style: &t.CircularText})
	}
	if !row.Expanded && row.HasChildren() {
		n := len(row.Node.Subclasses) + len(row.Node.Instances)
		segs = append(segs, segment{text: " (" + strconv.Itoa(n) + ")", style: &t.MutedText})
	}
	if m.showDescriptions && row.Node.Description != "" {
		segs = append(segs, segment{text: "  " + oneLine(row.Node.Description), style: &t.SecondaryText})
	}
	return segs
}

// renderRow renders one tree row within width cells.
func (m Model) renderRow(row session.Row, selected bool, width int) string {
	prefix := "  "
	if selected {
		prefix = cursorMark
	}
	segs := m.rowSegments(row)

	if selected {
		var plain strings.Builder
		plain.WriteString(prefix)
		for _, s := range segs {
			plain.WriteString(s.text)
		}
		return m.theme.Selected.Render(padRight(truncate(plain.String(), width), width))
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	remaining := width - runewidth.StringWidth(prefix)
	for _, s := range segs {
		if remaining <= 0 {
			break
		}
		text := s.text
		if w := runewidth.StringWidth(text); w > remaining {
			text = truncate(text, remaining)
		}
		remaining -= runewidth.StringWidth(text)
		if s.style != nil {
			text = s.style.Render(text)
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// renderTree renders the tree pane content: a title line followed by the
// visible window of rows.
func (m Model) renderTree(width, height int) string {
	var lines []string

	root, ok := m.session.ActiveRoot()
	if !ok {
		lines = append(lines, m.theme.MutedText.Render("No category selected"))
		return strings.Join(lines, "\n")
	}

	title := m.theme.PrimaryBold.Render(truncate(categoryLabel(root), width-len(root.ID)-3)) +
		m.theme.MutedText.Render(" ("+root.ID+")")
	lines = append(lines, title)

	if len(m.rows) == 0 {
		msg := "No items in this category"
		if m.session.QueryActive() {
			msg = "No items matching \"" + m.session.Query() + "\""
		}
		lines = append(lines, "", m.theme.MutedText.Render(msg))
		return strings.Join(lines, "\n")
	}

	visible := max(height-1, 1)
	start := clamp(m.treeOffset, 0, max(len(m.rows)-1, 0))
	end := min(start+visible, len(m.rows))
	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.treeCursor && m.focused != focusCategories, width))
	}
	return strings.Join(lines, "\n")
}
