// Package analysis checks a hierarchy for structural problems that the
// browser itself tolerates but a dataset maintainer wants to know about.
//
// Every parent to child edge is added to a directed graph keyed by id. A
// well-formed dataset is a forest of trees once ids are merged, or at worst
// a DAG when an item sits under several parents. Strongly connected
// components and self loops mean the builder's cycle guard missed something.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// Duplicate is an id that appears more than once under the same parent.
type Duplicate struct {
	ParentID string `json:"parent_id"`
	ID       string `json:"id"`
	Count    int    `json:"count"`
}

// Marker is a node the builder stubbed out as a circular reference.
type Marker struct {
	ParentID string `json:"parent_id"`
	ID       string `json:"id"`
	Label    string `json:"label"`
}

// Report is the result of Check.
type Report struct {
	// NodeCount counts node occurrences; DistinctIDs counts unique ids.
	NodeCount   int `json:"node_count"`
	DistinctIDs int `json:"distinct_ids"`
	MaxDepth    int `json:"max_depth"`

	// MultiParent lists ids reachable from more than one parent id, sorted.
	MultiParent []string `json:"multi_parent,omitempty"`

	// Cycles lists each strongly connected component of the id graph, ids
	// sorted within and components sorted by first id.
	Cycles    [][]string  `json:"cycles,omitempty"`
	SelfLoops []string    `json:"self_loops,omitempty"`
	Siblings  []Duplicate `json:"duplicate_siblings,omitempty"`
	Circular  []Marker    `json:"circular_markers,omitempty"`
}

// HasProblems reports whether anything other than informational counts was
// found. Circular markers are informational: they are how the builder
// records a cycle it already broke.
func (r Report) HasProblems() bool {
	return len(r.Cycles) > 0 || len(r.SelfLoops) > 0 || len(r.Siblings) > 0
}

// idGraph maps dataset ids onto gonum node ids.
type idGraph struct {
	g        *simple.DirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
}

func newIDGraph() *idGraph {
	return &idGraph{
		g:        simple.NewDirectedGraph(),
		idToNode: make(map[string]int64),
		nodeToID: make(map[int64]string),
	}
}

func (ig *idGraph) node(id string) graph.Node {
	if n, ok := ig.idToNode[id]; ok {
		return ig.g.Node(n)
	}
	n := ig.g.NewNode()
	ig.g.AddNode(n)
	ig.idToNode[id] = n.ID()
	ig.nodeToID[n.ID()] = id
	return n
}

// Check builds the id graph of nodes and reports what it finds.
func Check(nodes []model.HierarchyNode) Report {
	defer metrics.Timer(metrics.CycleCheck)()

	var r Report
	ig := newIDGraph()
	parents := make(map[string]map[string]bool)
	selfLoops := make(map[string]bool)

	var walk func(nodes []model.HierarchyNode, parent string, depth int)
	walk = func(nodes []model.HierarchyNode, parent string, depth int) {
		counts := make(map[string]int, len(nodes))
		for i := range nodes {
			n := &nodes[i]
			r.NodeCount++
			if depth > r.MaxDepth {
				r.MaxDepth = depth
			}
			counts[n.ID]++
			child := ig.node(n.ID)

			if n.IsCircular() {
				r.Circular = append(r.Circular, Marker{ParentID: parent, ID: n.ID, Label: n.Label})
			}

			if parent != "" {
				if parents[n.ID] == nil {
					parents[n.ID] = make(map[string]bool)
				}
				parents[n.ID][parent] = true

				// simple.DirectedGraph rejects self edges.
				if parent == n.ID {
					selfLoops[n.ID] = true
				} else {
					ig.g.SetEdge(ig.g.NewEdge(ig.node(parent), child))
				}
			}

			// Subclasses and instances form one sibling group.
			walk(n.Children(), n.ID, depth+1)
		}
		for i := range nodes {
			id := nodes[i].ID
			if c := counts[id]; c > 1 {
				r.Siblings = append(r.Siblings, Duplicate{ParentID: parent, ID: id, Count: c})
				counts[id] = 0
			}
		}
	}
	walk(nodes, "", 0)

	r.DistinctIDs = len(ig.idToNode)
	for id, ps := range parents {
		if len(ps) > 1 {
			r.MultiParent = append(r.MultiParent, id)
		}
	}
	sort.Strings(r.MultiParent)
	for id := range selfLoops {
		r.SelfLoops = append(r.SelfLoops, id)
	}
	sort.Strings(r.SelfLoops)
	r.Cycles = ig.cycles()
	return r
}

// cycles returns the non-trivial strongly connected components. topo.Sort
// reports them in its Unorderable error when the graph is not a DAG.
func (ig *idGraph) cycles() [][]string {
	_, err := topo.Sort(ig.g)
	if err == nil {
		return nil
	}
	unorderable, ok := err.(topo.Unorderable)
	if !ok {
		return nil
	}

	var out [][]string
	for _, scc := range unorderable {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, ig.nodeToID[n.ID()])
		}
		sort.Strings(ids)
		out = append(out, ids)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// FormatCycle renders a component as a closed path.
func FormatCycle(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, ids...), ids[0]), " → ")
}

// Summary renders the report for terminal output.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes, %d distinct ids, depth %d\n", r.NodeCount, r.DistinctIDs, r.MaxDepth)
	if len(r.MultiParent) > 0 {
		fmt.Fprintf(&b, "%d ids appear under more than one parent\n", len(r.MultiParent))
	}
	if len(r.Circular) > 0 {
		fmt.Fprintf(&b, "%d circular-reference markers:\n", len(r.Circular))
		for _, m := range r.Circular {
			fmt.Fprintf(&b, "  - %s %q under %s\n", m.ID, m.Label, m.ParentID)
		}
	}
	for _, id := range r.SelfLoops {
		fmt.Fprintf(&b, "Self-loop: %s is its own child\n", id)
	}
	for _, c := range r.Cycles {
		fmt.Fprintf(&b, "Cycle of %d ids: %s\n", len(c), FormatCycle(c))
	}
	for _, d := range r.Siblings {
		parent := d.ParentID
		if parent == "" {
			parent = "top level"
		}
		fmt.Fprintf(&b, "Duplicate sibling: %s appears %d times under %s\n", d.ID, d.Count, parent)
	}
	if !r.HasProblems() {
		b.WriteString("No structural problems found\n")
	}
	return b.String()
}
