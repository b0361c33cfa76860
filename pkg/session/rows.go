package session

import (
	"github.com/vanderheijden86/hierview/pkg/expansion"
	"github.com/vanderheijden86/hierview/pkg/model"
	"github.com/vanderheijden86/hierview/pkg/treefilter"
)

// EdgeKind says how a row relates to its parent.
type EdgeKind int

const (
	EdgeSubclass EdgeKind = iota
	EdgeInstance
)

func (e EdgeKind) String() string {
	if e == EdgeInstance {
		return "instance"
	}
	return "subclass"
}

// Row is one line of the rendered tree.
type Row struct {
	Node     *model.HierarchyNode
	Key      expansion.Key
	Depth    int
	Edge     EdgeKind
	Expanded bool // displayed state
	Match    bool // node's own label or description matches the query
	Last     bool // last among its siblings

	// Guides[i] is true when the ancestor at depth i has siblings below
	// it, so a vertical guide continues through this row.
	Guides []bool
}

// HasChildren reports whether the row's node has anything to expand.
func (r Row) HasChildren() bool {
	return r.Node != nil && r.Node.HasChildren()
}

// VisibleRows flattens the displayed tree into rows, descending only into
// nodes whose displayed state is expanded. Every visited position is bound
// in the expansion controller and positions that were not visited are
// dropped.
func (s *Session) VisibleRows() []Row {
	root, ok := s.ActiveRoot()
	if !ok {
		s.expansion.Retain(nil)
		return nil
	}
	nodes := s.DisplayedNodes()
	nSub := s.displayedSubclasses

	w := rowWalker{
		s:     s,
		query: s.NormalizedQuery(),
		rows:  make([]Row, 0, len(nodes)),
		seen:  make(map[expansion.Key]bool),
	}
	w.walk(expansion.Root(root.ID), nodes, nSub, 0, nil)

	s.expansion.Retain(w.seen)
	return w.rows
}

type rowWalker struct {
	s     *Session
	query string
	rows  []Row
	seen  map[expansion.Key]bool
}

// walk emits rows for nodes, the first nSub of which are subclasses of
// parent and the rest instances.
func (w *rowWalker) walk(parent expansion.Key, nodes []model.HierarchyNode, nSub, depth int, guides []bool) {
	ctrl := w.s.expansion
	for i := range nodes {
		node := &nodes[i]
		edge, k := EdgeSubclass, parent.Child(node.ID)
		if i >= nSub {
			edge, k = EdgeInstance, parent.Instance(node.ID)
		}
		ctrl.Bind(k, node.ID)
		w.seen[k] = true

		last := i == len(nodes)-1
		row := Row{
			Node:     node,
			Key:      k,
			Depth:    depth,
			Edge:     edge,
			Expanded: ctrl.Expanded(k),
			Match:    w.query != "" && treefilter.SelfMatch(node, w.query),
			Last:     last,
			Guides:   guides,
		}
		w.rows = append(w.rows, row)

		if !row.Expanded || !node.HasChildren() {
			continue
		}
		next := make([]bool, len(guides)+1)
		copy(next, guides)
		next[len(guides)] = !last

		w.walk(k, node.Children(), len(node.Subclasses), depth+1, next)
	}
}
