// Package config handles loading and saving hv configuration.
//
// The config file follows the XDG Base Directory specification and lives
// at ~/.config/hv/config.yaml ($XDG_CONFIG_HOME/hv/config.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is a named dataset file or data directory.
type Dataset struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultCategory            string  `yaml:"default_category,omitempty"` // Category id selected at startup
	SplitRatio                 float64 `yaml:"split_ratio,omitempty"`      // Category pane width ratio (0.2-0.8)
	ShowDescriptions           *bool   `yaml:"show_descriptions,omitempty"`
	ClearQueryOnCategoryChange bool    `yaml:"clear_query_on_category_change,omitempty"`
}

// LoaderConfig controls how datasets are found and loaded.
type LoaderConfig struct {
	PreferredFiles []string `yaml:"preferred_files,omitempty"` // Lookup order inside a data directory
	Watch          bool     `yaml:"watch,omitempty"`           // Reload when the dataset file changes
	Exclude        []string `yaml:"exclude,omitempty"`         // Ids pruned with their subtrees
}

// Config is the top-level configuration for hv.
type Config struct {
	Datasets  []Dataset      `yaml:"datasets,omitempty"`
	Favorites map[int]string `yaml:"favorites,omitempty"` // Number key (1-9) -> category id
	UI        UIConfig       `yaml:"ui,omitempty"`
	Loader    LoaderConfig   `yaml:"loader,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			SplitRatio: 0.3,
		},
		Loader: LoaderConfig{
			PreferredFiles: []string{"enriched_hierarchy.json", "hierarchy.json"},
		},
	}
}

// ConfigDir returns the XDG config directory for hv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "hv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}
	if len(cfg.Loader.PreferredFiles) == 0 {
		cfg.Loader.PreferredFiles = DefaultConfig().Loader.PreferredFiles
	}
	if r := cfg.UI.SplitRatio; r < 0.2 || r > 0.8 {
		cfg.UI.SplitRatio = DefaultConfig().UI.SplitRatio
	}

	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandHome(cfg.Datasets[i].Path)
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DescriptionsShown reports whether descriptions are shown next to labels.
// Defaults to true.
func (u UIConfig) DescriptionsShown() bool {
	return u.ShowDescriptions == nil || *u.ShowDescriptions
}

// FindDataset returns the dataset with the given name, or nil.
func (c Config) FindDataset(name string) *Dataset {
	for i := range c.Datasets {
		if strings.EqualFold(c.Datasets[i].Name, name) {
			return &c.Datasets[i]
		}
	}
	return nil
}

// FavoriteCategory returns the category id assigned to number key n (1-9).
func (c Config) FavoriteCategory(n int) (string, bool) {
	id, ok := c.Favorites[n]
	return id, ok && id != ""
}

// SetFavorite assigns a category id to a number key (1-9). An empty id
// clears the key.
func (c *Config) SetFavorite(n int, categoryID string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if categoryID == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = categoryID
	}
}

// CategoryFavoriteNumber returns the favorite number (1-9) for a category id, or 0 if not favorited.
func (c Config) CategoryFavoriteNumber(id string) int {
	for n, fav := range c.Favorites {
		if fav == id {
			return n
		}
	}
	return 0
}

// ResolvedPath returns the dataset path with ~ expanded.
func (d Dataset) ResolvedPath() string {
	return expandHome(d.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
