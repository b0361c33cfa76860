// Package treefilter narrows a taxonomy to the nodes that match a search
// query, keeping the path from the filtered roots down to every match.
package treefilter

import (
	"strings"

	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// NormalizeQuery lower-cases and trims a raw query. Filter expects its
// query in this form.
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SelfMatch reports whether the node's own label or description contains
// query. query must already be normalized.
func SelfMatch(node *model.HierarchyNode, query string) bool {
	return strings.Contains(strings.ToLower(node.Label), query) ||
		strings.Contains(strings.ToLower(node.Description), query)
}

// Filter returns the nodes that match query or have a matching descendant,
// in their original order. Kept nodes are shallow copies whose subclasses
// and instances are replaced by their filtered versions, or left nil when
// nothing under them survived. The input is never modified.
//
// An empty query returns nodes unchanged without walking the tree.
func Filter(nodes []model.HierarchyNode, query string) []model.HierarchyNode {
	if query == "" {
		return nodes
	}
	defer metrics.Timer(metrics.TreeFilter)()
	return filterNodes(nodes, query)
}

func filterNodes(nodes []model.HierarchyNode, query string) []model.HierarchyNode {
	var out []model.HierarchyNode
	for i := range nodes {
		node := &nodes[i]

		subclasses := filterNodes(node.Subclasses, query)
		instances := filterNodes(node.Instances, query)
		if len(subclasses) == 0 && len(instances) == 0 && !SelfMatch(node, query) {
			continue
		}

		kept := *node
		kept.Subclasses = subclasses
		kept.Instances = instances
		out = append(out, kept)
	}
	return out
}

// CountNodes counts every node in nodes including all descendants. Pass
// it the output of Filter to get the number of retained nodes.
func CountNodes(nodes []model.HierarchyNode) int {
	defer metrics.Timer(metrics.NodeCount)()
	return countNodes(nodes)
}

func countNodes(nodes []model.HierarchyNode) int {
	n := 0
	for i := range nodes {
		n += 1 + countNodes(nodes[i].Subclasses) + countNodes(nodes[i].Instances)
	}
	return n
}
