package loader

import "github.com/vanderheijden86/hierview/pkg/model"

// Prune removes every node whose id is in exclude, together with its
// subtree, wherever it appears. Collections emptied by pruning are left
// nil. The input is not modified; untouched subtrees are shared.
func Prune(nodes []model.HierarchyNode, exclude []string) []model.HierarchyNode {
	if len(exclude) == 0 {
		return nodes
	}
	drop := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		drop[id] = true
	}
	out, _ := prune(nodes, drop)
	if out == nil && nodes != nil {
		return []model.HierarchyNode{}
	}
	return out
}

// prune reports whether anything under nodes was removed so unchanged
// slices can be returned as they are.
func prune(nodes []model.HierarchyNode, drop map[string]bool) ([]model.HierarchyNode, bool) {
	changed := false
	var out []model.HierarchyNode
	for i := range nodes {
		n := nodes[i]
		if drop[n.ID] {
			changed = true
			continue
		}
		subs, subChanged := prune(n.Subclasses, drop)
		insts, instChanged := prune(n.Instances, drop)
		if subChanged || instChanged {
			changed = true
			n.Subclasses = subs
			n.Instances = insts
		}
		out = append(out, n)
	}
	if !changed {
		return nodes, false
	}
	return out, true
}
