package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UI.SplitRatio != 0.3 {
		t.Errorf("expected split ratio 0.3, got %f", cfg.UI.SplitRatio)
	}
	if !cfg.UI.DescriptionsShown() {
		t.Error("expected descriptions shown by default")
	}
	want := []string{"enriched_hierarchy.json", "hierarchy.json"}
	if !reflect.DeepEqual(cfg.Loader.PreferredFiles, want) {
		t.Errorf("expected preferred files %v, got %v", want, cfg.Loader.PreferredFiles)
	}
	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.SplitRatio != 0.3 {
		t.Errorf("expected default config, got split ratio %f", cfg.UI.SplitRatio)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
datasets:
  - name: devices
    path: ~/data/devices
  - name: other
    path: /absolute/path/hierarchy.json

favorites:
  1: Q100
  2: Q200

ui:
  default_category: Q100
  split_ratio: 0.5
  show_descriptions: false
  clear_query_on_category_change: true

loader:
  preferred_files:
    - taxonomy.json
  watch: true
  exclude:
    - Q999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(cfg.Datasets))
	}
	if cfg.Datasets[0].Name != "devices" {
		t.Errorf("expected dataset name 'devices', got %q", cfg.Datasets[0].Name)
	}
	// Path should have ~ expanded
	home, _ := os.UserHomeDir()
	expectedPath := filepath.Join(home, "data/devices")
	if cfg.Datasets[0].Path != expectedPath {
		t.Errorf("expected expanded path %q, got %q", expectedPath, cfg.Datasets[0].Path)
	}
	if cfg.Datasets[1].Path != "/absolute/path/hierarchy.json" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Datasets[1].Path)
	}

	if cfg.Favorites[1] != "Q100" || cfg.Favorites[2] != "Q200" {
		t.Errorf("unexpected favorites %v", cfg.Favorites)
	}

	if cfg.UI.DefaultCategory != "Q100" {
		t.Errorf("expected default_category 'Q100', got %q", cfg.UI.DefaultCategory)
	}
	if cfg.UI.SplitRatio != 0.5 {
		t.Errorf("expected split_ratio 0.5, got %f", cfg.UI.SplitRatio)
	}
	if cfg.UI.DescriptionsShown() {
		t.Error("expected show_descriptions false")
	}
	if !cfg.UI.ClearQueryOnCategoryChange {
		t.Error("expected clear_query_on_category_change true")
	}

	if !reflect.DeepEqual(cfg.Loader.PreferredFiles, []string{"taxonomy.json"}) {
		t.Errorf("unexpected preferred files %v", cfg.Loader.PreferredFiles)
	}
	if !cfg.Loader.Watch {
		t.Error("expected watch true")
	}
	if !reflect.DeepEqual(cfg.Loader.Exclude, []string{"Q999"}) {
		t.Errorf("unexpected exclude %v", cfg.Loader.Exclude)
	}
}

func TestLoadFrom_FillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
ui:
  split_ratio: 0.95
loader:
  watch: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UI.SplitRatio != 0.3 {
		t.Errorf("out of range split ratio should reset to 0.3, got %f", cfg.UI.SplitRatio)
	}
	if len(cfg.Loader.PreferredFiles) != 2 {
		t.Errorf("expected default preferred files, got %v", cfg.Loader.PreferredFiles)
	}
	if cfg.Favorites == nil {
		t.Error("expected favorites map to be initialized even when empty in config")
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	hide := false
	cfg := Config{
		Datasets: []Dataset{
			{Name: "devices", Path: "/data/devices"},
			{Name: "plants", Path: "/data/plants.json"},
		},
		Favorites: map[int]string{
			1: "Q100",
			3: "Q300",
		},
		UI: UIConfig{
			DefaultCategory:  "Q300",
			SplitRatio:       0.6,
			ShowDescriptions: &hide,
		},
		Loader: LoaderConfig{
			PreferredFiles: []string{"hierarchy.json"},
			Exclude:        []string{"Q1"},
		},
	}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Datasets, cfg.Datasets) {
		t.Errorf("datasets = %+v", loaded.Datasets)
	}
	if !reflect.DeepEqual(loaded.Favorites, cfg.Favorites) {
		t.Errorf("favorites = %v", loaded.Favorites)
	}
	if loaded.UI.DefaultCategory != "Q300" || loaded.UI.SplitRatio != 0.6 || loaded.UI.DescriptionsShown() {
		t.Errorf("ui = %+v", loaded.UI)
	}
	if !reflect.DeepEqual(loaded.Loader.Exclude, []string{"Q1"}) {
		t.Errorf("exclude = %v", loaded.Loader.Exclude)
	}
}

func TestFindDataset(t *testing.T) {
	cfg := Config{
		Datasets: []Dataset{
			{Name: "alpha", Path: "/a"},
			{Name: "Beta", Path: "/b"},
		},
	}

	d := cfg.FindDataset("alpha")
	if d == nil || d.Name != "alpha" {
		t.Error("expected to find 'alpha'")
	}

	// Case-insensitive
	d = cfg.FindDataset("BETA")
	if d == nil || d.Name != "Beta" {
		t.Error("expected to find 'Beta' case-insensitively")
	}

	if cfg.FindDataset("nonexistent") != nil {
		t.Error("expected nil for nonexistent dataset")
	}
}

func TestFavoriteCategory(t *testing.T) {
	cfg := Config{Favorites: map[int]string{1: "Q100"}}

	if id, ok := cfg.FavoriteCategory(1); !ok || id != "Q100" {
		t.Errorf("expected favorite 1 to be Q100, got %q %v", id, ok)
	}
	if _, ok := cfg.FavoriteCategory(5); ok {
		t.Error("expected unset favorite to report false")
	}
}

func TestSetFavorite(t *testing.T) {
	var cfg Config

	cfg.SetFavorite(1, "Q100")
	if cfg.Favorites[1] != "Q100" {
		t.Error("expected favorite 1 set to 'Q100'")
	}

	// Clear favorite
	cfg.SetFavorite(1, "")
	if _, ok := cfg.Favorites[1]; ok {
		t.Error("expected favorite 1 to be cleared")
	}
}

func TestCategoryFavoriteNumber(t *testing.T) {
	cfg := Config{
		Favorites: map[int]string{
			2: "Q100",
			5: "Q200",
		},
	}

	if n := cfg.CategoryFavoriteNumber("Q100"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
	if n := cfg.CategoryFavoriteNumber("Q200"); n != 5 {
		t.Errorf("expected 5, got %d", n)
	}
	if n := cfg.CategoryFavoriteNumber("unknown"); n != 0 {
		t.Errorf("expected 0 for unknown, got %d", n)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "hv")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if ConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("unexpected config path %q", ConfigPath())
	}
}

func TestLoad_UsesXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.UI.DefaultCategory = "Q42"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.UI.DefaultCategory != "Q42" {
		t.Errorf("expected Q42, got %q", loaded.UI.DefaultCategory)
	}
}
