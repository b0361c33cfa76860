package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/model"
)

func sampleDataset() *model.Dataset {
	return &model.Dataset{
		Metadata: &model.DatasetMetadata{Endpoint: "https://query.example.org/sparql", SeedItems: 2},
		Hierarchy: []model.HierarchyNode{
			{
				ID:    "Q29606",
				Label: "audio device",
				Subclasses: []model.HierarchyNode{
					{ID: "Q100", Label: "Microphone", Instances: []model.HierarchyNode{
						{ID: "Q101", Label: "Shure SM57", ExactMatch: []string{"http://example.org/sm57"}},
					}},
					{ID: "Q110", Label: "Loudspeaker", Note: model.NoteCircularReference},
				},
				Instances: []model.HierarchyNode{{ID: "Q120", Label: "Theremin", Description: "no contact"}},
			},
			{ID: "Q23229", Label: "material"},
		},
	}
}

func writeJSON(t *testing.T, path string, ds *model.Dataset) {
	t.Helper()
	b, err := json.Marshal(ds)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		t.Fatal(err)
	}
}

func setMtime(t *testing.T, path string, mt time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}
}

func TestExportSQLiteRestoresTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hierarchy.db")
	want := sampleDataset()
	if err := ExportSQLite(want, path); err != nil {
		t.Fatalf("ExportSQLite: %v", err)
	}

	got, err := LoadPath(path, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if !reflect.DeepEqual(got.Hierarchy, want.Hierarchy) {
		t.Errorf("hierarchy differs after export:\n got %+v\nwant %+v", got.Hierarchy, want.Hierarchy)
	}
	if got.Metadata == nil || got.Metadata.Endpoint != want.Metadata.Endpoint {
		t.Errorf("metadata lost: %+v", got.Metadata)
	}
}

func TestExportSQLiteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hierarchy.db")
	if err := ExportSQLite(sampleDataset(), path); err != nil {
		t.Fatal(err)
	}
	small := &model.Dataset{Hierarchy: []model.HierarchyNode{{ID: "Q1", Label: "only"}}}
	if err := ExportSQLite(small, path); err != nil {
		t.Fatalf("second export: %v", err)
	}
	got, err := LoadPath(path, loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Hierarchy) != 1 || got.Metadata != nil {
		t.Errorf("expected only the second export, got %+v", got)
	}
}

func TestLoadFromSQLiteWithExclude(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hierarchy.sqlite")
	if err := ExportSQLite(sampleDataset(), path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadPath(path, loader.ParseOptions{Exclude: []string{"Q100"}})
	if err != nil {
		t.Fatal(err)
	}
	if subs := got.Hierarchy[0].Subclasses; len(subs) != 1 || subs[0].ID != "Q110" {
		t.Errorf("expected Microphone pruned, got %+v", subs)
	}
}

func TestTypeForPath(t *testing.T) {
	cases := map[string]SourceType{
		"hierarchy.json": SourceTypeJSON,
		"export.DB":      SourceTypeSQLite,
		"export.sqlite3": SourceTypeSQLite,
		"data/x.sqlite":  SourceTypeSQLite,
		"enriched.JSON":  SourceTypeJSON,
	}
	for path, want := range cases {
		got, err := TypeForPath(path)
		if err != nil || got != want {
			t.Errorf("TypeForPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := TypeForPath("notes.txt"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestLoadFromSourceUnknownType(t *testing.T) {
	_, err := LoadFromSource(DataSource{Type: "csv", Path: "x.csv"}, loader.ParseOptions{})
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func TestDiscoverSourcesFreshestFirst(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "hierarchy.json")
	dbPath := filepath.Join(dir, "hierarchy.db")
	writeJSON(t, jsonPath, sampleDataset())
	if err := ExportSQLite(sampleDataset(), dbPath); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"theme": "dark"}`), 0644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# data"), 0644)

	now := time.Now()
	setMtime(t, jsonPath, now.Add(-time.Hour))
	setMtime(t, dbPath, now)

	var logs []string
	sources, err := DiscoverSources(DiscoveryOptions{
		DataDir:                dir,
		ValidateAfterDiscovery: true,
		Verbose:                true,
		Logger:                 func(msg string) { logs = append(logs, msg) },
	})
	if err != nil {
		t.Fatalf("DiscoverSources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 valid sources, got %v", sources)
	}
	if sources[0].Type != SourceTypeSQLite {
		t.Errorf("newer export should come first, got %s", sources[0])
	}
	if sources[1].CategoryCount != 2 {
		t.Errorf("validation should count categories, got %d", sources[1].CategoryCount)
	}
	if len(logs) == 0 {
		t.Error("expected verbose logging")
	}
}

func TestSelectBestSourceTieGoesToJSON(t *testing.T) {
	mt := time.Now()
	sources := []DataSource{
		{Type: SourceTypeSQLite, Path: "a.db", Priority: PrioritySQLite, ModTime: mt, Valid: true},
		{Type: SourceTypeJSON, Path: "a.json", Priority: PriorityJSON, ModTime: mt, Valid: true},
		{Type: SourceTypeJSON, Path: "broken.json", Priority: PriorityJSON, ModTime: mt.Add(time.Hour), ValidationError: "bad"},
	}
	best, err := SelectBestSource(sources)
	if err != nil {
		t.Fatal(err)
	}
	if best.Path != "a.json" {
		t.Errorf("expected a.json, got %s", best.Path)
	}

	if _, err := SelectBestSource(sources[2:]); err == nil {
		t.Error("expected error when nothing is valid")
	}
}

func TestLoadDatasetPicksJSON(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "hierarchy.json"), sampleDataset())

	ds, src, err := LoadDataset(dir, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if src.Type != SourceTypeJSON || len(ds.Hierarchy) != 2 {
		t.Errorf("unexpected result: %s, %d categories", src, len(ds.Hierarchy))
	}

	if _, _, err := LoadDataset(t.TempDir(), loader.ParseOptions{}); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestLoadDatasetWithNamesPrefersNamedJSON(t *testing.T) {
	dir := t.TempDir()
	plain := sampleDataset()
	plain.Hierarchy = plain.Hierarchy[:1]
	writeJSON(t, filepath.Join(dir, "hierarchy.json"), plain)
	writeJSON(t, filepath.Join(dir, "enriched_hierarchy.json"), sampleDataset())

	now := time.Now()
	setMtime(t, filepath.Join(dir, "enriched_hierarchy.json"), now.Add(-time.Hour))
	setMtime(t, filepath.Join(dir, "hierarchy.json"), now)

	ds, src, err := LoadDatasetWithNames(dir, []string{"enriched_hierarchy.json", "hierarchy.json"}, loader.ParseOptions{})
	if err != nil {
		t.Fatalf("LoadDatasetWithNames: %v", err)
	}
	if filepath.Base(src.Path) != "enriched_hierarchy.json" || len(ds.Hierarchy) != 2 {
		t.Errorf("expected the preferred file despite its age, got %s with %d categories", src, len(ds.Hierarchy))
	}

	// A newer export still wins over the preferred JSON.
	dbPath := filepath.Join(dir, "hierarchy.db")
	if err := ExportSQLite(plain, dbPath); err != nil {
		t.Fatal(err)
	}
	setMtime(t, dbPath, now.Add(time.Minute))
	_, src, err = LoadDatasetWithNames(dir, []string{"enriched_hierarchy.json"}, loader.ParseOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if src.Type != SourceTypeSQLite {
		t.Errorf("expected the newer export, got %s", src)
	}
}

func TestDetectInconsistencies(t *testing.T) {
	a := sampleDataset().Hierarchy
	b := sampleDataset().Hierarchy
	// Loudspeaker dropped, material relabeled, one new category.
	b[0].Subclasses = b[0].Subclasses[:1]
	b[1].Label = "materials"
	b = append(b, model.HierarchyNode{ID: "Q9", Label: "new"})

	diff := DetectInconsistencies(a, b, "a.json", "b.db", DefaultDiffOptions())
	if !reflect.DeepEqual(diff.MissingInB, []string{"Q110"}) {
		t.Errorf("MissingInB = %v", diff.MissingInB)
	}
	if !reflect.DeepEqual(diff.MissingInA, []string{"Q9"}) {
		t.Errorf("MissingInA = %v", diff.MissingInA)
	}
	if len(diff.LabelMismatch) != 1 || diff.LabelMismatch[0].LabelB != "materials" {
		t.Errorf("LabelMismatch = %+v", diff.LabelMismatch)
	}
	if !strings.Contains(diff.Summary(), "Inconsistencies found") {
		t.Errorf("summary = %q", diff.Summary())
	}

	same := DetectInconsistencies(a, a, "a", "a", DiffOptions{})
	if same.HasInconsistencies() {
		t.Errorf("identical inputs differ: %+v", same)
	}
	if !strings.HasPrefix(same.Summary(), "Sources match") {
		t.Errorf("summary = %q", same.Summary())
	}
}

func TestCheckAllSourcesConsistent(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "hierarchy.json")
	dbPath := filepath.Join(dir, "hierarchy.db")
	writeJSON(t, jsonPath, sampleDataset())

	stale := sampleDataset()
	stale.Hierarchy = stale.Hierarchy[:1]
	if err := ExportSQLite(stale, dbPath); err != nil {
		t.Fatal(err)
	}

	sources, err := DiscoverSources(DiscoveryOptions{DataDir: dir, ValidateAfterDiscovery: true})
	if err != nil {
		t.Fatal(err)
	}
	diffs := CheckAllSourcesConsistent(sources, DefaultDiffOptions())
	if len(diffs) != 1 {
		t.Fatalf("expected one inconsistent pair, got %d", len(diffs))
	}
	d := diffs[0]
	missing := append(append([]string{}, d.MissingInA...), d.MissingInB...)
	if !reflect.DeepEqual(missing, []string{"Q23229"}) {
		t.Errorf("expected Q23229 missing from the export, got %v", missing)
	}
}
