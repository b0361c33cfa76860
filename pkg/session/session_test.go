package session

import (
	"reflect"
	"testing"

	"github.com/vanderheijden86/hierview/pkg/expansion"
	"github.com/vanderheijden86/hierview/pkg/model"
)

func testHierarchy() []model.HierarchyNode {
	return []model.HierarchyNode{
		{
			ID:    "Q29606",
			Label: "audio device",
			Subclasses: []model.HierarchyNode{
				{
					ID:    "Q100",
					Label: "Microphone",
					Instances: []model.HierarchyNode{
						{ID: "Q101", Label: "Shure SM57"},
						{ID: "Q102", Label: "Ribbon mic", Description: "bidirectional"},
					},
				},
				{ID: "Q110", Label: "Loudspeaker"},
			},
			Instances: []model.HierarchyNode{
				{ID: "Q120", Label: "Theremin", Description: "played without contact"},
			},
		},
		{
			ID:    "Q23229",
			Label: "material",
			Subclasses: []model.HierarchyNode{
				{ID: "Q200", Label: "Paper"},
				{ID: "Q201", Label: "Metal", Subclasses: []model.HierarchyNode{{ID: "Q202", Label: "Steel"}}},
			},
		},
	}
}

func ids(nodes []model.HierarchyNode) []string {
	out := make([]string, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].ID
	}
	return out
}

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Node.ID
	}
	return out
}

func TestNoCategorySelected(t *testing.T) {
	s := New(testHierarchy())
	if _, ok := s.ActiveRoot(); ok {
		t.Fatal("expected no active root")
	}
	if n := len(s.DisplayedNodes()); n != 0 {
		t.Errorf("expected nothing displayed, got %d", n)
	}
	s.SetQuery("mic")
	if n := len(s.DisplayedNodes()); n != 0 {
		t.Errorf("query without category should display nothing, got %d", n)
	}
	if rows := s.VisibleRows(); rows != nil {
		t.Errorf("expected no rows, got %v", rowIDs(rows))
	}
}

func TestUnknownCategory(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q-missing"))
	if _, ok := s.ActiveRoot(); ok {
		t.Error("unknown id should not resolve")
	}
	if len(s.DisplayedNodes()) != 0 {
		t.Error("unknown category should display nothing")
	}
}

func TestDisplayedUnfiltered(t *testing.T) {
	s := New(testHierarchy())
	s.SelectCategory("Q29606")

	got := ids(s.DisplayedNodes())
	want := []string{"Q100", "Q110", "Q120"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("displayed = %v, want %v", got, want)
	}
	if s.ResultCount() != 0 {
		t.Errorf("result count without query = %d, want 0", s.ResultCount())
	}

	root, _ := s.ActiveRoot()
	if !reflect.DeepEqual(s.DisplayedNodes(), root.Children()) {
		t.Error("unfiltered view should equal the root's children")
	}
}

func TestDisplayedFiltered(t *testing.T) {
	s := New(testHierarchy())
	s.SelectCategory("Q29606")
	s.SetQuery("  MIC ")

	nodes := s.DisplayedNodes()
	if got := ids(nodes); !reflect.DeepEqual(got, []string{"Q100"}) {
		t.Fatalf("displayed = %v, want [Q100]", got)
	}
	// Microphone matches itself, but only its matching instance survives.
	if got := ids(nodes[0].Instances); !reflect.DeepEqual(got, []string{"Q102"}) {
		t.Errorf("instances = %v, want [Q102]", got)
	}
	if s.ResultCount() != 2 {
		t.Errorf("result count = %d, want 2", s.ResultCount())
	}
}

func TestWhitespaceQueryIsInactive(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q23229"))
	s.SetQuery("   ")
	if s.QueryActive() {
		t.Error("whitespace query should be inactive")
	}
	if len(s.DisplayedNodes()) != 2 {
		t.Errorf("expected unfiltered view, got %v", ids(s.DisplayedNodes()))
	}
	if s.ResultCount() != 0 {
		t.Error("inactive query should report 0 results")
	}
}

func TestQueryNoMatch(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q23229"))
	s.SetQuery("zzz")
	if len(s.DisplayedNodes()) != 0 {
		t.Errorf("expected empty result, got %v", ids(s.DisplayedNodes()))
	}
	if s.ResultCount() != 0 {
		t.Errorf("result count = %d", s.ResultCount())
	}
}

func TestSelectCategoryKeepsQuery(t *testing.T) {
	s := New(testHierarchy())
	s.SelectCategory("Q29606")
	s.SetQuery("e")
	s.SelectCategory("Q23229")

	if s.Query() != "e" {
		t.Fatalf("query should survive category change, got %q", s.Query())
	}
	got := ids(s.DisplayedNodes())
	if !reflect.DeepEqual(got, []string{"Q200", "Q201"}) {
		t.Errorf("re-filtered view = %v", got)
	}
}

func TestSelectCategoryClearsQueryWhenConfigured(t *testing.T) {
	s := New(testHierarchy(), WithClearQueryOnSelect(true))
	s.SelectCategory("Q29606")
	s.SetQuery("mic")
	s.SelectCategory("Q23229")

	if s.Query() != "" {
		t.Errorf("expected query cleared, got %q", s.Query())
	}
	if s.Expansion().QueryActive() {
		t.Error("expansion controller should see the query cleared")
	}
}

func TestClearingQueryRestoresChildren(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q29606"))
	before := s.DisplayedNodes()
	s.SetQuery("theremin")
	if len(s.DisplayedNodes()) != 1 {
		t.Fatalf("expected Theremin only, got %v", ids(s.DisplayedNodes()))
	}
	s.SetQuery("")
	if !reflect.DeepEqual(s.DisplayedNodes(), before) {
		t.Error("clearing the query should restore the unfiltered children")
	}
}

func TestSetHierarchyKeepsSelection(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q23229"))
	s.SetQuery("steel")
	if s.ResultCount() != 2 {
		t.Fatalf("result count = %d, want 2", s.ResultCount())
	}

	reloaded := testHierarchy()
	reloaded[1].Subclasses = reloaded[1].Subclasses[:1] // Metal removed
	s.SetHierarchy(reloaded)
	if s.ResultCount() != 0 {
		t.Errorf("stale results after reload: %d", s.ResultCount())
	}
	if s.ActiveCategoryID() != "Q23229" {
		t.Error("selection should survive reload")
	}
}

func TestVisibleRowsCollapse(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q29606"))
	rows := s.VisibleRows()
	want := []string{"Q100", "Q101", "Q102", "Q110", "Q120"}
	if got := rowIDs(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	if rows[0].Edge != EdgeSubclass || rows[1].Edge != EdgeInstance || rows[4].Edge != EdgeInstance {
		t.Errorf("edge kinds wrong: %v %v %v", rows[0].Edge, rows[1].Edge, rows[4].Edge)
	}
	if rows[1].Depth != 1 || !rows[4].Last {
		t.Errorf("depth/last flags wrong: %+v %+v", rows[1], rows[4])
	}

	if !s.Toggle(rows[0].Key) {
		t.Fatal("toggle should apply")
	}
	rows = s.VisibleRows()
	if got := rowIDs(rows); !reflect.DeepEqual(got, []string{"Q100", "Q110", "Q120"}) {
		t.Errorf("collapsed rows = %v", got)
	}
	if rows[0].Expanded {
		t.Error("Microphone should show collapsed")
	}
}

// TestToggleDuringQuery checks that a collapse made before searching
// survives the search and that toggles during the search are ignored.
func TestToggleDuringQuery(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q29606"))
	rows := s.VisibleRows()
	mic := rows[0].Key
	s.Toggle(mic)
	s.VisibleRows()

	s.SetQuery("ribbon")
	rows = s.VisibleRows()
	if got := rowIDs(rows); !reflect.DeepEqual(got, []string{"Q100", "Q102"}) {
		t.Fatalf("rows during query = %v", got)
	}
	if !rows[0].Expanded {
		t.Error("Microphone must display expanded during a query")
	}
	if !rows[1].Match || rows[0].Match {
		t.Errorf("match flags wrong: mic=%v ribbon=%v", rows[0].Match, rows[1].Match)
	}
	if s.Toggle(mic) {
		t.Error("toggle during a query should be ignored")
	}

	s.SetQuery("")
	rows = s.VisibleRows()
	if rows[0].Key != mic || rows[0].Expanded {
		t.Error("collapse from before the query should govern again")
	}
}

func TestRowsResetOnCategorySwitch(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q23229"))
	rows := s.VisibleRows()
	s.Toggle(rows[1].Key) // collapse Metal
	s.VisibleRows()

	s.SelectCategory("Q29606")
	s.VisibleRows()
	s.SelectCategory("Q23229")
	rows = s.VisibleRows()
	if got := rowIDs(rows); !reflect.DeepEqual(got, []string{"Q200", "Q201", "Q202"}) {
		t.Errorf("remounted category should start expanded, rows = %v", got)
	}
}

func TestRowGuides(t *testing.T) {
	s := New(testHierarchy(), WithCategory("Q23229"))
	rows := s.VisibleRows()
	steel := rows[2]
	if steel.Node.ID != "Q202" {
		t.Fatalf("unexpected row order: %v", rowIDs(rows))
	}
	if !reflect.DeepEqual(steel.Guides, []bool{false}) {
		t.Errorf("Metal is the last sibling, guides = %v", steel.Guides)
	}

	s.SelectCategory("Q29606")
	rows = s.VisibleRows()
	if !reflect.DeepEqual(rows[1].Guides, []bool{true}) {
		t.Errorf("Microphone has siblings below, guides = %v", rows[1].Guides)
	}
	if _, ok := s.Expansion().BoundID(expansion.Root("Q23229").Child("Q201")); ok {
		t.Error("positions from the previous category should be dropped")
	}
}

// A node listed both as a subclass and as an instance of one parent is
// rendered twice; each row must keep its own expansion state.
func TestSubclassAndInstanceWithSameID(t *testing.T) {
	shared := model.HierarchyNode{
		ID:         "Q7",
		Label:      "Sensor",
		Subclasses: []model.HierarchyNode{{ID: "Q8", Label: "Probe"}},
	}
	hierarchy := []model.HierarchyNode{{
		ID:    "Q1",
		Label: "device",
		Subclasses: []model.HierarchyNode{{
			ID:         "Q5",
			Label:      "Meter",
			Subclasses: []model.HierarchyNode{shared},
			Instances:  []model.HierarchyNode{shared},
		}},
		Instances: []model.HierarchyNode{shared},
	}}
	hierarchy[0].Subclasses = append(hierarchy[0].Subclasses, shared)

	s := New(hierarchy, WithCategory("Q1"))
	rows := s.VisibleRows()
	want := []string{"Q5", "Q7", "Q8", "Q7", "Q8", "Q7", "Q8", "Q7", "Q8"}
	if got := rowIDs(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	keys := make(map[expansion.Key]bool, len(rows))
	for _, r := range rows {
		if keys[r.Key] {
			t.Fatalf("two rows share key %q", r.Key)
		}
		keys[r.Key] = true
	}
	if rows[1].Edge != EdgeSubclass || rows[3].Edge != EdgeInstance {
		t.Errorf("nested edges = %v, %v", rows[1].Edge, rows[3].Edge)
	}
	if rows[5].Edge != EdgeSubclass || rows[7].Edge != EdgeInstance {
		t.Errorf("top-level edges = %v, %v", rows[5].Edge, rows[7].Edge)
	}

	s.Toggle(rows[1].Key)
	rows = s.VisibleRows()
	want = []string{"Q5", "Q7", "Q7", "Q8", "Q7", "Q8", "Q7", "Q8"}
	if got := rowIDs(rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("after collapsing the subclass row: %v, want %v", got, want)
	}
	if rows[1].Expanded || !rows[2].Expanded {
		t.Error("only the subclass row should be collapsed")
	}

	s.SetQuery("probe")
	rows = s.VisibleRows()
	if len(rows) != 9 || rows[5].Edge != EdgeSubclass || rows[7].Edge != EdgeInstance {
		t.Errorf("top-level edges during a query: %v", rowIDs(rows))
	}
}
