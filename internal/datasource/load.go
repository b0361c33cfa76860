package datasource

import (
	"fmt"

	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// LoadDataset performs multi-source detection in dataDir and loads the
// freshest valid source, using the default dataset file names.
func LoadDataset(dataDir string, opts loader.ParseOptions) (*model.Dataset, DataSource, error) {
	return LoadDatasetWithNames(dataDir, loader.PreferredDatasetNames, opts)
}

// LoadDatasetWithNames is like LoadDataset with a custom priority list for
// JSON files. Among JSON files only the preferred one is a candidate; a
// SQLite export that is newer than it wins, otherwise the JSON document is
// authoritative.
//
// Falls back to JSON-only loading via loader.LoadDatasetWithOptions if
// detection finds no valid sources.
func LoadDatasetWithNames(dataDir string, preferred []string, opts loader.ParseOptions) (*model.Dataset, DataSource, error) {
	jsonPath, jsonErr := loader.FindDatasetPathWithNames(dataDir, preferred)

	sources, err := DiscoverSources(DiscoveryOptions{
		DataDir:                dataDir,
		ValidateAfterDiscovery: true,
	})
	if err == nil && jsonErr == nil {
		sources = withoutOtherJSON(sources, jsonPath)
	}
	if err == nil && len(sources) > 0 {
		best, err := SelectBestSource(sources)
		if err == nil {
			ds, err := LoadFromSource(best, opts)
			if err == nil {
				return ds, best, nil
			}
		}
	}

	if jsonErr != nil {
		return nil, DataSource{}, jsonErr
	}
	ds, err := loader.LoadDatasetWithOptions(jsonPath, opts)
	if err != nil {
		return nil, DataSource{}, err
	}
	src, _ := SourceForPath(jsonPath)
	return ds, src, nil
}

// withoutOtherJSON drops JSON sources other than keep.
func withoutOtherJSON(sources []DataSource, keep string) []DataSource {
	out := sources[:0:0]
	for _, s := range sources {
		if s.Type == SourceTypeJSON && s.Path != keep {
			continue
		}
		out = append(out, s)
	}
	return out
}

// LoadPath loads a single file, choosing the reader from its extension.
func LoadPath(path string, opts loader.ParseOptions) (*model.Dataset, error) {
	src, err := SourceForPath(path)
	if err != nil {
		return nil, err
	}
	return LoadFromSource(src, opts)
}

// LoadFromSource loads a dataset from a specific DataSource, dispatching to
// the appropriate reader based on source type.
func LoadFromSource(source DataSource, opts loader.ParseOptions) (*model.Dataset, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite source %s: %w", source.Path, err)
		}
		defer reader.Close()
		ds, err := reader.LoadDataset()
		if err != nil {
			return nil, err
		}
		if len(opts.Exclude) > 0 {
			ds.Hierarchy = loader.Prune(ds.Hierarchy, opts.Exclude)
		}
		return ds, nil

	case SourceTypeJSON:
		return loader.LoadDatasetWithOptions(source.Path, opts)

	default:
		return nil, fmt.Errorf("%q: %w", source.Type, ErrUnknownSource)
	}
}
