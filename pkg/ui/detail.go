package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/hierview/pkg/debug"
	"github.com/vanderheijden86/hierview/pkg/export"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// detailCache keeps the last rendered detail so scrolling the tree does
// not re-run glamour for an unchanged node.
type detailCache struct {
	key string
	out string
}

func (c *detailCache) reset() {
	c.key, c.out = "", ""
}

func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		debug.Log("ui: glamour renderer unavailable: %v", err)
		return nil
	}
	return r
}

// detailMarkdown returns the markdown source for the selected node.
func (m Model) detailMarkdown() (string, *model.HierarchyNode) {
	node := m.selectedNode()
	if node == nil {
		return "", nil
	}
	var path []string
	if m.focused != focusCategories {
		path = m.rowAncestors(m.treeCursor)
	}
	return export.NodeMarkdown(node, path), node
}

// renderDetail renders the detail pane content clipped to width x height.
func (m Model) renderDetail(width, height int) string {
	src, node := m.detailMarkdown()
	if node == nil {
		return m.theme.MutedText.Render("Nothing selected")
	}

	cacheKey := m.focused.String() + "\x00" + node.ID + "\x00" + strings.Join(m.rowAncestors(m.treeCursor), "\x00")
	out := src
	switch {
	case m.detail != nil && m.detail.key == cacheKey:
		out = m.detail.out
	case m.mdRenderer != nil:
		if rendered, err := m.mdRenderer.Render(src); err == nil {
			out = strings.Trim(rendered, "\n")
		}
		if m.detail != nil {
			m.detail.key, m.detail.out = cacheKey, out
		}
	}

	vp := viewport.New(width, height)
	vp.SetContent(out)
	return vp.View()
}
