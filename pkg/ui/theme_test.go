package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/session"
)

func TestDefaultTheme(t *testing.T) {
	renderer := lipgloss.NewRenderer(nil)
	theme := DefaultTheme(renderer)

	if theme.Renderer != renderer {
		t.Error("DefaultTheme renderer mismatch")
	}
	if isColorEmpty(theme.Primary) || isColorEmpty(theme.Match) || isColorEmpty(theme.Circular) {
		t.Error("DefaultTheme has empty colors")
	}
	if theme.EdgeColor(true) != theme.Instance || theme.EdgeColor(false) != theme.Subclass {
		t.Error("EdgeColor mismatch")
	}
}

func isColorEmpty(c lipgloss.AdaptiveColor) bool {
	return c.Light == "" && c.Dark == ""
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"microwave oven", 20, "microwave oven"},
		{"microwave oven", 8, "microwa…"},
		{"電子レンジ", 5, "電子…"},
		{"anything", 0, ""},
		{"anything", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("電子", 6); got != "電子  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("oven", 2); got != "oven" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestRenderRowFitsWidth(t *testing.T) {
	m := NewModel(testDataset())
	node := &model.HierarchyNode{
		ID:          "Q9",
		Label:       "a very long label that will not fit in a narrow pane",
		Description: "and an even longer description that follows it",
		Note:        model.NoteCircularReference,
		Subclasses:  []model.HierarchyNode{{ID: "Q10"}},
	}
	row := session.Row{Node: node, Depth: 2, Guides: []bool{true, false}, Edge: session.EdgeInstance}

	for _, selected := range []bool{false, true} {
		out := m.renderRow(row, selected, 30)
		if w := lipgloss.Width(out); w > 30 {
			t.Errorf("selected=%v row is %d cells wide", selected, w)
		}
	}

	wide := m.renderRow(row, false, 200)
	for _, want := range []string{"│   ", "▸ ", "◆ ", "↺", "(1)", "even longer"} {
		if !strings.Contains(wide, want) {
			t.Errorf("row missing %q: %q", want, wide)
		}
	}
	if runewidth.StringWidth(foldLeaf) != runewidth.StringWidth(foldExpanded) {
		t.Error("fold indicators must have equal width")
	}
}
