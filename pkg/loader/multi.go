package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/hierview/pkg/model"
)

// LoadResult is the outcome of loading one dataset file.
type LoadResult struct {
	Path    string
	Dataset *model.Dataset
	Error   error
}

// MultiLoader loads several dataset files and merges their categories.
type MultiLoader struct {
	opts   ParseOptions
	logger *log.Logger
}

// NewMultiLoader creates a loader that parses every file with opts.
func NewMultiLoader(opts ParseOptions) *MultiLoader {
	return &MultiLoader{
		opts: opts,
		// Silent by default so robot output on stdout/stderr stays clean.
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets a custom logger for per-file failures and merge conflicts.
func (l *MultiLoader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// LoadAll loads every path in parallel and merges the categories in path
// order. A category id seen in an earlier file wins over later ones. Files
// that fail to load are logged and skipped; LoadAll only fails when none
// of them load.
func (l *MultiLoader) LoadAll(ctx context.Context, paths []string) (*model.Dataset, []LoadResult, error) {
	if len(paths) == 0 {
		return nil, nil, errors.New("no dataset paths given")
	}

	results := make([]LoadResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = LoadResult{Path: path, Error: err}
				return nil
			}
			ds, err := LoadDatasetWithOptions(path, l.opts)
			results[i] = LoadResult{Path: path, Dataset: ds, Error: err}
			// Per-file errors are captured in results, not propagated.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, fmt.Errorf("fatal error during parallel loading: %w", err)
	}

	merged := &model.Dataset{Hierarchy: []model.HierarchyNode{}}
	seen := make(map[string]string)
	loaded := 0
	for _, r := range results {
		if r.Error != nil {
			l.logger.Printf("WARNING: failed to load %s: %v", r.Path, r.Error)
			continue
		}
		loaded++
		if merged.Metadata == nil {
			merged.Metadata = r.Dataset.Metadata
		}
		for _, cat := range r.Dataset.Hierarchy {
			if first, dup := seen[cat.ID]; dup {
				l.logger.Printf("WARNING: category %s in %s already loaded from %s", cat.ID, r.Path, first)
				continue
			}
			seen[cat.ID] = r.Path
			merged.Hierarchy = append(merged.Hierarchy, cat)
		}
	}
	l.logger.Printf("Finished parallel loading of %d datasets (%d ok)", len(paths), loaded)

	if loaded == 0 {
		return nil, results, fmt.Errorf("no dataset could be loaded: %w", results[0].Error)
	}
	return merged, results, nil
}
