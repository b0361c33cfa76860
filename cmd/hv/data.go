package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/vanderheijden86/hierview/internal/datasource"
	"github.com/vanderheijden86/hierview/pkg/config"
	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// loadedData is a dataset plus where it came from.
type loadedData struct {
	Dataset *model.Dataset
	// Path is the file the dataset was read from; empty when several files
	// were merged.
	Path string
	// Dir is the data directory that was searched, if any.
	Dir string
	// Files lists every file that was merged.
	Files []string
}

func (d loadedData) describe() string {
	switch {
	case d.Path != "":
		return d.Path
	case len(d.Files) > 0:
		return strings.Join(d.Files, ", ")
	default:
		return d.Dir
	}
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveDataPaths returns the explicit dataset paths. --data wins over
// --dataset; neither means the data directory is discovered later.
func resolveDataPaths(dataFlag, datasetName string, cfg config.Config) ([]string, error) {
	if paths := splitList(dataFlag); len(paths) > 0 {
		return paths, nil
	}
	if datasetName == "" {
		return nil, nil
	}
	d := cfg.FindDataset(datasetName)
	if d == nil {
		names := make([]string, 0, len(cfg.Datasets))
		for _, ds := range cfg.Datasets {
			names = append(names, ds.Name)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("unknown dataset %q: no datasets registered in %s", datasetName, config.ConfigPath())
		}
		return nil, fmt.Errorf("unknown dataset %q (registered: %s)", datasetName, strings.Join(names, ", "))
	}
	return []string{d.ResolvedPath()}, nil
}

// loadData loads the dataset from paths. No path means the data directory
// (HV_DATA_DIR or ./data); a directory is searched with the preferred file
// names; several paths are loaded in parallel and merged.
func loadData(paths, preferred []string, opts loader.ParseOptions, verbose bool) (loadedData, error) {
	switch len(paths) {
	case 0:
		dir, err := loader.GetDataDir("")
		if err != nil {
			return loadedData{}, err
		}
		return loadDir(dir, preferred, opts)
	case 1:
		info, err := os.Stat(paths[0])
		if err != nil {
			return loadedData{}, err
		}
		if info.IsDir() {
			return loadDir(paths[0], preferred, opts)
		}
		ds, err := datasource.LoadPath(paths[0], opts)
		if err != nil {
			return loadedData{}, err
		}
		return loadedData{Dataset: ds, Path: paths[0], Files: paths}, nil
	}

	ml := loader.NewMultiLoader(opts)
	if verbose {
		ml.SetLogger(log.New(os.Stderr, "", 0))
	}
	ds, results, err := ml.LoadAll(context.Background(), paths)
	if err != nil {
		return loadedData{}, err
	}
	var files []string
	for _, r := range results {
		if r.Error == nil {
			files = append(files, r.Path)
		}
	}
	return loadedData{Dataset: ds, Files: files}, nil
}

func loadDir(dir string, preferred []string, opts loader.ParseOptions) (loadedData, error) {
	if len(preferred) == 0 {
		preferred = loader.PreferredDatasetNames
	}
	ds, src, err := datasource.LoadDatasetWithNames(dir, preferred, opts)
	if err != nil {
		return loadedData{}, err
	}
	return loadedData{Dataset: ds, Path: src.Path, Dir: dir, Files: []string{src.Path}}, nil
}
