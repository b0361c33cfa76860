package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/hierview/pkg/metrics"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// DataDirEnvVar is the name of the environment variable for a custom data directory
const DataDirEnvVar = "HV_DATA_DIR"

// PreferredDatasetNames defines the priority order for looking up dataset files.
// The enriched file is a superset of the plain one.
var PreferredDatasetNames = []string{"enriched_hierarchy.json", "hierarchy.json"}

// ErrNoHierarchy is returned when a document has no top-level hierarchy array.
var ErrNoHierarchy = errors.New("dataset has no hierarchy")

// GetDataDir returns the data directory path, respecting HV_DATA_DIR env var.
// If HV_DATA_DIR is set, it is used directly.
// Otherwise, falls back to data/ in the given root (or cwd if empty).
func GetDataDir(root string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	return filepath.Join(root, "data"), nil
}

// FindDatasetPath locates the dataset file in the given directory.
// Prefers enriched_hierarchy.json over hierarchy.json. Skips backup files.
func FindDatasetPath(dataDir string) (string, error) {
	return FindDatasetPathWithNames(dataDir, PreferredDatasetNames)
}

// FindDatasetPathWithNames is like FindDatasetPath with a custom priority list.
func FindDatasetPathWithNames(dataDir string, preferred []string) (string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return "", fmt.Errorf("failed to read data directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.Contains(name, ".backup") || strings.Contains(name, ".orig") {
			continue
		}
		candidates = append(candidates, name)
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("no dataset file found in %s", dataDir)
	}

	for _, want := range preferred {
		for _, name := range candidates {
			if name != want {
				continue
			}
			path := filepath.Join(dataDir, name)
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				return path, nil
			}
		}
	}

	// Any other JSON file in the directory may be a dataset with a custom
	// name; only take one that mentions a hierarchy key.
	for _, name := range candidates {
		path := filepath.Join(dataDir, name)
		if looksLikeDataset(path) {
			return path, nil
		}
	}

	return "", fmt.Errorf("no dataset file found in %s", dataDir)
}

func looksLikeDataset(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 4096)
	n, _ := io.ReadFull(f, head)
	return bytes.Contains(head[:n], []byte(`"hierarchy"`))
}

// ParseOptions configures the behavior of ParseDataset.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., nodes without an id).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// Exclude lists ids to prune, together with their subtrees.
	Exclude []string
}

// LoadDataset reads the dataset at path. A directory is resolved with
// FindDatasetPath first.
func LoadDataset(path string) (*model.Dataset, error) {
	return LoadDatasetWithOptions(path, ParseOptions{})
}

// LoadDatasetWithOptions reads a dataset with custom options.
func LoadDatasetWithOptions(path string, opts ParseOptions) (*model.Dataset, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no dataset found at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset: %w", err)
	}
	if info.IsDir() {
		path, err = FindDatasetPath(path)
		if err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	ds, err := ParseDatasetWithOptions(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ParseDataset parses a dataset document from a reader.
func ParseDataset(r io.Reader) (*model.Dataset, error) {
	return ParseDatasetWithOptions(r, ParseOptions{})
}

// ParseDatasetWithOptions parses a dataset document with custom options.
// Handles UTF-8 BOM stripping. Nodes without an id are dropped with a
// warning, as are repeated ids among siblings.
func ParseDatasetWithOptions(r io.Reader, opts ParseOptions) (*model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset stream: %w", err)
	}
	data = stripBOM(data)

	// Default warning handler prints to stderr (suppressed in robot mode).
	warn := opts.WarningHandler
	if warn == nil {
		if os.Getenv("HV_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	var doc struct {
		Hierarchy json.RawMessage        `json:"hierarchy"`
		Metadata  *model.DatasetMetadata `json:"metadata"`
	}
	stop := metrics.Timer(metrics.JSONParsing)
	if err := json.Unmarshal(data, &doc); err != nil {
		stop()
		return nil, fmt.Errorf("malformed dataset JSON: %w", err)
	}
	if isNull(doc.Hierarchy) {
		stop()
		return nil, ErrNoHierarchy
	}
	var nodes []model.HierarchyNode
	err = json.Unmarshal(doc.Hierarchy, &nodes)
	stop()
	if err != nil {
		return nil, fmt.Errorf("invalid hierarchy: %w", err)
	}

	ds := &model.Dataset{
		Hierarchy: validate(nodes, warn),
		Metadata:  doc.Metadata,
	}
	if len(opts.Exclude) > 0 {
		ds.Hierarchy = Prune(ds.Hierarchy, opts.Exclude)
	}
	return ds, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// validate drops nodes without an id and repeated ids among siblings.
// Siblings are the subclasses and instances of one parent taken together,
// so an id listed as both keeps only its subclass entry. The top level is
// treated as a sibling group like any other. Empty child arrays come back
// nil.
func validate(nodes []model.HierarchyNode, warn func(string)) []model.HierarchyNode {
	var walk func(nodes []model.HierarchyNode, parent string, seen map[string]bool) []model.HierarchyNode
	walk = func(nodes []model.HierarchyNode, parent string, seen map[string]bool) []model.HierarchyNode {
		if len(nodes) == 0 {
			return nil
		}
		out := nodes[:0:0]
		for _, n := range nodes {
			switch {
			case n.ID == "":
				warn(fmt.Sprintf("skipping node without id under %s (label %q)", parentName(parent), n.Label))
				continue
			case seen[n.ID]:
				warn(fmt.Sprintf("skipping duplicate id %s under %s", n.ID, parentName(parent)))
				continue
			}
			seen[n.ID] = true
			children := make(map[string]bool, len(n.Subclasses)+len(n.Instances))
			if n.Subclasses != nil {
				n.Subclasses = walk(n.Subclasses, n.ID, children)
			}
			if n.Instances != nil {
				n.Instances = walk(n.Instances, n.ID, children)
			}
			out = append(out, n)
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	out := walk(nodes, "", make(map[string]bool, len(nodes)))
	if out == nil {
		// An empty top level is a valid, empty dataset.
		return []model.HierarchyNode{}
	}
	return out
}

func parentName(id string) string {
	if id == "" {
		return "top level"
	}
	return id
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
