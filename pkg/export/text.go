// Package export renders the displayed tree for output outside the TUI:
// indented text, robot JSON and markdown.
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/vanderheijden86/hierview/pkg/model"
)

// Tree drawing glyphs.
const (
	glyphBranch = "├── "
	glyphLast   = "└── "
	glyphPipe   = "│   "
	glyphBlank  = "    "

	// CircularMarker is appended to nodes the builder stubbed out as a
	// circular reference.
	CircularMarker = "↺"
	// InstanceMarker prefixes nodes reached through an instance edge.
	InstanceMarker = "◆ "
)

// TreePrefix returns the guide text drawn before a node. guides[i] is true
// when the ancestor at depth i still has siblings below.
func TreePrefix(guides []bool, last bool) string {
	var sb strings.Builder
	for _, g := range guides {
		if g {
			sb.WriteString(glyphPipe)
		} else {
			sb.WriteString(glyphBlank)
		}
	}
	if last {
		sb.WriteString(glyphLast)
	} else {
		sb.WriteString(glyphBranch)
	}
	return sb.String()
}

// TextOptions controls WriteText.
type TextOptions struct {
	ShowIDs          bool
	ShowDescriptions bool
	MaxDepth         int // 0 means unlimited
}

// DefaultTextOptions shows ids and descriptions at any depth.
func DefaultTextOptions() TextOptions {
	return TextOptions{ShowIDs: true, ShowDescriptions: true}
}

// WriteText writes the displayed nodes of a category as an indented tree,
// fully expanded, under a header line for root. nodes are root's children,
// possibly filtered; root is only used for the header and to tell which
// top-level nodes are instances.
func WriteText(w io.Writer, root *model.HierarchyNode, nodes []model.HierarchyNode, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	instance := func(int) bool { return false }
	if root != nil {
		bw.WriteString(NodeLine(root, opts.ShowIDs, opts.ShowDescriptions))
		bw.WriteByte('\n')
		inst := TopLevelInstances(root, nodes)
		instance = func(i int) bool { return inst[i] }
	}
	writeTextNodes(bw, nodes, instance, opts, nil, 0)
	return bw.Flush()
}

// TopLevelInstances reports, for each of nodes, whether it sits among
// root's instances. nodes must be an in-order subsequence of
// root.Children(), as filtering produces; a node is matched to the first
// remaining child with its id, so an id present in both collections
// resolves to the subclass first.
func TopLevelInstances(root *model.HierarchyNode, nodes []model.HierarchyNode) []bool {
	out := make([]bool, len(nodes))
	nSub := len(root.Subclasses)
	j := 0
	for i := range nodes {
		for j < nSub+len(root.Instances) {
			var c *model.HierarchyNode
			if j < nSub {
				c = &root.Subclasses[j]
			} else {
				c = &root.Instances[j-nSub]
			}
			j++
			if c.ID == nodes[i].ID {
				out[i] = j > nSub
				break
			}
		}
	}
	return out
}

func writeTextNodes(w *bufio.Writer, nodes []model.HierarchyNode, instance func(int) bool, opts TextOptions, guides []bool, depth int) {
	for i := range nodes {
		node := &nodes[i]
		last := i == len(nodes)-1

		w.WriteString(TreePrefix(guides, last))
		if instance(i) {
			w.WriteString(InstanceMarker)
		}
		w.WriteString(NodeLine(node, opts.ShowIDs, opts.ShowDescriptions))
		w.WriteByte('\n')

		if !node.HasChildren() || (opts.MaxDepth > 0 && depth+1 >= opts.MaxDepth) {
			continue
		}
		next := make([]bool, len(guides)+1)
		copy(next, guides)
		next[len(guides)] = !last
		nSub := len(node.Subclasses)
		writeTextNodes(w, node.Children(), func(j int) bool { return j >= nSub }, opts, next, depth+1)
	}
}

// NodeLine renders a node's label with its optional id, description and
// circular marker on one line.
func NodeLine(node *model.HierarchyNode, showID, showDescription bool) string {
	var sb strings.Builder
	label := node.Label
	if label == "" {
		label = node.ID
	}
	sb.WriteString(label)
	if showID && node.Label != "" {
		sb.WriteString(" (")
		sb.WriteString(node.ID)
		sb.WriteString(")")
	}
	if node.IsCircular() {
		sb.WriteString(" ")
		sb.WriteString(CircularMarker)
	}
	if showDescription && node.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(oneLine(node.Description))
	}
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
