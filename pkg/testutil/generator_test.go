package testutil

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/model"
)

func TestTree(t *testing.T) {
	g := New(GeneratorConfig{Seed: 1, InstanceRatio: 0})
	root := g.Tree(3, 2)

	// 2 + 4 + 8 below the root
	if got := CountNodes(root.Children()); got != 14 {
		t.Errorf("expected 14 nodes below the root, got %d", got)
	}
	if len(root.Instances) != 0 {
		t.Error("instance ratio 0 should produce no instances")
	}
	AssertNoDuplicateSiblings(t, []model.HierarchyNode{root})
	AssertNoEmptyCollections(t, []model.HierarchyNode{root})

	depth := 0
	model.Walk([]model.HierarchyNode{root}, func(_ *model.HierarchyNode, d int) bool {
		depth = max(depth, d)
		return true
	})
	if depth != 3 {
		t.Errorf("expected depth 3, got %d", depth)
	}
}

func TestTreeInstancesOnlyOnLastLevel(t *testing.T) {
	g := New(GeneratorConfig{Seed: 7, InstanceRatio: 1})
	root := g.Tree(2, 3)

	if len(root.Instances) != 0 || len(root.Subclasses) != 3 {
		t.Fatalf("upper levels should be subclasses, got %d/%d", len(root.Subclasses), len(root.Instances))
	}
	for _, sub := range root.Subclasses {
		if len(sub.Subclasses) != 0 || len(sub.Instances) != 3 {
			t.Errorf("%s: expected 3 instances, got %d subclasses %d instances", sub.ID, len(sub.Subclasses), len(sub.Instances))
		}
	}
}

func TestChain(t *testing.T) {
	root := NewDefault().Chain(4)
	n := &root
	for i := 0; i < 4; i++ {
		if len(n.Children()) != 1 {
			t.Fatalf("level %d: expected one child, got %d", i, len(n.Children()))
		}
		n = &n.Children()[0]
	}
	if n.HasChildren() {
		t.Error("chain should end in a leaf")
	}
}

func TestCircular(t *testing.T) {
	root := NewDefault().Circular(2)
	stub := &root.Subclasses[0].Subclasses[0].Subclasses[0]
	if stub.ID != root.ID || !stub.IsCircular() {
		t.Errorf("expected a circular stub for %s, got %+v", root.ID, stub)
	}
}

func TestDatasetMetadata(t *testing.T) {
	ds := New(GeneratorConfig{Seed: 3}).Dataset(2, 2, 2)
	if len(ds.Hierarchy) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(ds.Hierarchy))
	}
	meta := ds.Metadata
	if meta.TotalItemsDiscovered != CountNodes(ds.Hierarchy) {
		t.Errorf("ids are unique, expected %d items, got %d", CountNodes(ds.Hierarchy), meta.TotalItemsDiscovered)
	}
	if meta.SubclassRelationships+meta.InstanceRelationships != CountNodes(ds.Hierarchy)-2 {
		t.Errorf("every non-root node has one incoming edge: %+v", meta)
	}
}

func TestDeterminism(t *testing.T) {
	a := New(GeneratorConfig{Seed: 99}).Dataset(3, 3, 3)
	b := New(GeneratorConfig{Seed: 99}).Dataset(3, 3, 3)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed should produce the same dataset")
	}
}

func TestFindNodeAndIDs(t *testing.T) {
	root := New(GeneratorConfig{Seed: 5, InstanceRatio: 0}).Tree(2, 2)
	nodes := []model.HierarchyNode{root}

	leaf := root.Subclasses[1].Subclasses[0]
	if got := FindNode(nodes, leaf.ID); got == nil || got.Label != leaf.Label {
		t.Errorf("FindNode(%s) = %+v", leaf.ID, got)
	}
	if FindNode(nodes, "missing") != nil {
		t.Error("expected nil for unknown id")
	}
	if got := IDs(root.Subclasses); !reflect.DeepEqual(got, []string{root.Subclasses[0].ID, root.Subclasses[1].ID}) {
		t.Errorf("IDs = %v", got)
	}
}

func TestAssertOrderPreserved(t *testing.T) {
	root := New(GeneratorConfig{Seed: 11, InstanceRatio: 0}).Tree(2, 3)
	sub := []model.HierarchyNode{root.Subclasses[0], root.Subclasses[2]}
	sub[1].Subclasses = sub[1].Subclasses[1:]
	AssertOrderPreserved(t, root.Subclasses, sub)
}

func TestWriteDatasetFileLoads(t *testing.T) {
	ds := QuickDataset(2, 2, 3)
	path := WriteDatasetFile(t, filepath.Join(TempDataDir(t), "data", "hierarchy.json"), ds)

	loaded, err := loader.LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	AssertNodeCount(t, loaded.Hierarchy, CountNodes(ds.Hierarchy))
	if loaded.Metadata == nil || loaded.Metadata.TotalItemsDiscovered != ds.Metadata.TotalItemsDiscovered {
		t.Errorf("metadata lost: %+v", loaded.Metadata)
	}
}

func TestEmptyAndSingle(t *testing.T) {
	if len(Empty().Hierarchy) != 0 || Empty().Hierarchy == nil {
		t.Error("Empty should have a non-nil, empty hierarchy")
	}
	if s := Single(); len(s.Hierarchy) != 1 || s.Hierarchy[0].HasChildren() {
		t.Error("Single should hold one childless category")
	}
}

func BenchmarkTree6x6(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = QuickTree(6, 6)
	}
}

func BenchmarkToJSON(b *testing.B) {
	ds := QuickDataset(4, 4, 5)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ToJSON(ds)
	}
}
