// Package datasource discovers, validates and selects the dataset source hv
// reads from. A data directory can hold the builder's JSON output and a
// SQLite export of it; the freshest valid one wins.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/hierview/pkg/loader"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeJSON is a hierarchy JSON document written by the dataset builder
	SourceTypeJSON SourceType = "json"
	// SourceTypeSQLite is a database written by ExportSQLite
	SourceTypeSQLite SourceType = "sqlite"
)

// Priority values for source types (higher = more authoritative)
const (
	PriorityJSON   = 100
	PrioritySQLite = 50
)

// ErrUnknownSource is returned for a path or source whose type cannot be
// determined.
var ErrUnknownSource = errors.New("unknown data source type")

// DataSource represents a potential source of hierarchy data
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the path to the source file
	Path string `json:"path"`
	// Priority determines preference when timestamps are equal (higher = preferred)
	Priority int `json:"priority"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// CategoryCount is the number of top-level categories (set during validation)
	CategoryCount int `json:"category_count"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, categories=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.CategoryCount, status)
}

// sqliteExtensions are the file extensions treated as SQLite exports.
var sqliteExtensions = []string{".db", ".sqlite", ".sqlite3"}

// TypeForPath classifies a file by its extension.
func TypeForPath(path string) (SourceType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return SourceTypeJSON, nil
	}
	for _, e := range sqliteExtensions {
		if ext == e {
			return SourceTypeSQLite, nil
		}
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownSource)
}

// SourceForPath describes a single file as a DataSource without validating it.
func SourceForPath(path string) (DataSource, error) {
	typ, err := TypeForPath(path)
	if err != nil {
		return DataSource{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("stat source: %w", err)
	}
	return DataSource{
		Type:     typ,
		Path:     path,
		Priority: priorityFor(typ),
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}, nil
}

func priorityFor(t SourceType) int {
	if t == SourceTypeJSON {
		return PriorityJSON
	}
	return PrioritySQLite
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// DataDir is the data directory (optional, resolved with loader.GetDataDir if empty)
	DataDir string
	// Root is the project root used to resolve DataDir (optional, uses cwd if empty)
	Root string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources finds all potential data sources in the data directory,
// freshest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = loader.GetDataDir(opts.Root)
		if err != nil {
			return nil, err
		}
	}

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovering sources in: %s", dataDir))
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") {
			continue
		}
		typ, err := TypeForPath(name)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dataDir, name)
		sources = append(sources, DataSource{
			Type:     typ,
			Path:     path,
			Priority: priorityFor(typ),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s: %s (mod=%s)", typ, path, info.ModTime().Format(time.RFC3339)))
		}
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			var valid []DataSource
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)

	if opts.Verbose {
		opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	}
	return sources, nil
}

// sortSources orders by mod time, newest first, then by priority.
func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// ValidateSource loads the source and records whether it holds a usable
// hierarchy.
func ValidateSource(s *DataSource) error {
	ds, err := LoadFromSource(*s, loader.ParseOptions{WarningHandler: func(string) {}})
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.CategoryCount = len(ds.Hierarchy)
	return nil
}

// SelectBestSource returns the freshest valid source. Sources that were
// never validated count as valid.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	candidates := make([]DataSource, 0, len(sources))
	for _, s := range sources {
		if s.Valid || s.ValidationError == "" {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return DataSource{}, errors.New("no valid sources")
	}
	sortSources(candidates)
	return candidates[0], nil
}
