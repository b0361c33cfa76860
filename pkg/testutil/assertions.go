package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/hierview/pkg/model"
)

// AssertNodeCount verifies the number of nodes under nodes, descendants
// included.
func AssertNodeCount(t *testing.T, nodes []model.HierarchyNode, expected int) {
	t.Helper()
	if got := CountNodes(nodes); got != expected {
		t.Errorf("expected %d nodes, got %d", expected, got)
	}
}

// AssertNoDuplicateSiblings verifies that no id appears twice among the
// children of one parent.
func AssertNoDuplicateSiblings(t *testing.T, nodes []model.HierarchyNode) {
	t.Helper()
	var check func(parent string, children []model.HierarchyNode)
	check = func(parent string, children []model.HierarchyNode) {
		seen := make(map[string]bool, len(children))
		for i := range children {
			if seen[children[i].ID] {
				t.Errorf("duplicate sibling %s under %q", children[i].ID, parent)
			}
			seen[children[i].ID] = true
			check(children[i].ID, children[i].Children())
		}
	}
	check("", nodes)
}

// AssertNoEmptyCollections verifies that subclasses and instances are
// either absent or non-empty everywhere.
func AssertNoEmptyCollections(t *testing.T, nodes []model.HierarchyNode) {
	t.Helper()
	model.Walk(nodes, func(n *model.HierarchyNode, _ int) bool {
		if n.Subclasses != nil && len(n.Subclasses) == 0 {
			t.Errorf("%s has an empty subclasses collection", n.ID)
		}
		if n.Instances != nil && len(n.Instances) == 0 {
			t.Errorf("%s has an empty instances collection", n.ID)
		}
		return true
	})
}

// AssertOrderPreserved verifies that every node in sub appears in
// original, among the same siblings, in the same relative order.
func AssertOrderPreserved(t *testing.T, original, sub []model.HierarchyNode) {
	t.Helper()
	j := 0
	for i := range sub {
		for j < len(original) && original[j].ID != sub[i].ID {
			j++
		}
		if j == len(original) {
			t.Errorf("%s is missing or out of order", sub[i].ID)
			return
		}
		AssertOrderPreserved(t, original[j].Subclasses, sub[i].Subclasses)
		AssertOrderPreserved(t, original[j].Instances, sub[i].Instances)
		j++
	}
}

// CountNodes counts nodes and all their descendants.
func CountNodes(nodes []model.HierarchyNode) int {
	n := 0
	model.Walk(nodes, func(*model.HierarchyNode, int) bool {
		n++
		return true
	})
	return n
}

// FindNode returns the first node with id, searching depth-first.
func FindNode(nodes []model.HierarchyNode, id string) *model.HierarchyNode {
	var found *model.HierarchyNode
	model.Walk(nodes, func(n *model.HierarchyNode, _ int) bool {
		if found == nil && n.ID == id {
			found = n
		}
		return found == nil
	})
	return found
}

// IDs returns the ids of nodes, without descending.
func IDs(nodes []model.HierarchyNode) []string {
	ids := make([]string, len(nodes))
	for i := range nodes {
		ids[i] = nodes[i].ID
	}
	return ids
}

// TempDataDir creates a temporary project root with a data subdirectory
// and returns the root. The directory is cleaned up after the test.
func TempDataDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "data"), 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	return root
}

// WriteDatasetFile writes ds as JSON to path, creating parent directories,
// and returns path.
func WriteDatasetFile(t *testing.T, path string, ds *model.Dataset) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	data, err := ToJSON(ds)
	if err != nil {
		t.Fatalf("failed to encode dataset: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write dataset file: %v", err)
	}
	return path
}
