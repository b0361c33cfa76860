package model

import (
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestChildrenOrder(t *testing.T) {
	n := HierarchyNode{
		ID:         "Q1",
		Subclasses: []HierarchyNode{{ID: "s1"}, {ID: "s2"}},
		Instances:  []HierarchyNode{{ID: "i1"}},
	}
	got := n.Children()
	want := []string{"s1", "s2", "i1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("child %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestChildrenEmpty(t *testing.T) {
	n := HierarchyNode{ID: "leaf"}
	if n.HasChildren() {
		t.Error("leaf should have no children")
	}
	if len(n.Children()) != 0 {
		t.Errorf("expected no children, got %d", len(n.Children()))
	}

	n.Subclasses = []HierarchyNode{}
	if n.HasChildren() {
		t.Error("empty subclasses slice should not count as children")
	}
}

func TestUnmarshalKeepsUnknownFields(t *testing.T) {
	input := `{"id":"Q7","label":"Theremin","description":"electronic instrument",
		"used_in":[{"id":"Q9","label":"Concert"}],"exact_match":["http://example.org/t"],
		"wikidata_rank":3,"aliases":["etherphone"]}`

	var n HierarchyNode
	if err := json.Unmarshal([]byte(input), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.ID != "Q7" || n.Label != "Theremin" || n.Description != "electronic instrument" {
		t.Errorf("known fields not decoded: %+v", n)
	}
	if len(n.UsedIn) != 1 || n.UsedIn[0].Label != "Concert" {
		t.Errorf("used_in not decoded: %+v", n.UsedIn)
	}
	if len(n.Extra) != 2 {
		t.Fatalf("expected 2 extra keys, got %d: %v", len(n.Extra), n.Extra)
	}
	if string(n.Extra["wikidata_rank"]) != "3" {
		t.Errorf("wikidata_rank = %s", n.Extra["wikidata_rank"])
	}

	out, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back HierarchyNode
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if !reflect.DeepEqual(n.Extra, back.Extra) {
		t.Errorf("extra fields lost on round-trip: %s", out)
	}
}

func TestMarshalOmitsAbsentCollections(t *testing.T) {
	out, err := json.Marshal(HierarchyNode{ID: "Q1", Label: "Bird", Description: "flies"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "subclasses") || strings.Contains(s, "instances") {
		t.Errorf("absent collections should be omitted: %s", s)
	}
}

func TestUnmarshalRejectsNonArrayChildren(t *testing.T) {
	var n HierarchyNode
	err := json.Unmarshal([]byte(`{"id":"Q1","label":"x","subclasses":{"id":"Q2"}}`), &n)
	if err == nil {
		t.Fatal("expected error for object-valued subclasses")
	}
}

func TestUnmarshalErrorNamesNode(t *testing.T) {
	doc := []byte(`{"label":"x","thumbnail":7,"note":"n","id":"Q1","ieee_term":[]}`)
	for i := 0; i < 20; i++ {
		var n HierarchyNode
		err := json.Unmarshal(doc, &n)
		if err == nil {
			t.Fatal("expected error for a numeric thumbnail")
		}
		if !strings.Contains(err.Error(), "node Q1") || !strings.Contains(err.Error(), "thumbnail") {
			t.Fatalf("error should name the node and field, got %v", err)
		}
	}
}

func TestUnmarshalBadID(t *testing.T) {
	var n HierarchyNode
	if err := json.Unmarshal([]byte(`{"id":42,"label":"x"}`), &n); err == nil || !strings.Contains(err.Error(), `"id"`) {
		t.Errorf("expected an id field error, got %v", err)
	}
}

func TestWalkAndCollectIDs(t *testing.T) {
	nodes := []HierarchyNode{
		{ID: "a", Subclasses: []HierarchyNode{{ID: "b", Instances: []HierarchyNode{{ID: "c"}}}}},
		{ID: "d"},
	}

	var order []string
	var depths []int
	Walk(nodes, func(n *HierarchyNode, depth int) bool {
		order = append(order, n.ID)
		depths = append(depths, depth)
		return true
	})
	if strings.Join(order, ",") != "a,b,c,d" {
		t.Errorf("walk order = %v", order)
	}
	if !reflect.DeepEqual(depths, []int{0, 1, 2, 0}) {
		t.Errorf("walk depths = %v", depths)
	}

	ids := CollectIDs(nodes)
	if len(ids) != 4 || !ids["c"] {
		t.Errorf("CollectIDs = %v", ids)
	}
}

func TestFindCategory(t *testing.T) {
	ds := Dataset{Hierarchy: []HierarchyNode{{ID: "Q1"}, {ID: "Q2", Label: "Material"}}}
	root, ok := ds.FindCategory("Q2")
	if !ok || root.Label != "Material" {
		t.Fatalf("FindCategory(Q2) = %v, %v", root, ok)
	}
	if _, ok := ds.FindCategory("missing"); ok {
		t.Error("expected missing category to be absent")
	}
}
