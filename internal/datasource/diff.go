package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/hierview/pkg/loader"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// SourceDiff represents differences between two data sources, typically
// the builder's JSON and a SQLite export that has gone stale.
type SourceDiff struct {
	// SourceA is the path of the first source
	SourceA string
	// SourceB is the path of the second source
	SourceB string
	// MissingInA contains ids present in B but not in A
	MissingInA []string
	// MissingInB contains ids present in A but not in B
	MissingInB []string
	// LabelMismatch contains ids whose label differs between sources
	LabelMismatch []LabelDifference
	// CountA is the number of distinct ids in source A
	CountA int
	// CountB is the number of distinct ids in source B
	CountB int
}

// LabelDifference represents a label mismatch for a single id
type LabelDifference struct {
	ID     string `json:"id"`
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.LabelMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d ids each)", d.CountA)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	writeIDs := func(ids []string, in, notIn string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, "  - %d ids in %s but not %s\n", len(ids), in, notIn)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&b, "    - %s\n", id)
			}
		}
	}
	writeIDs(d.MissingInA, d.SourceB, d.SourceA)
	writeIDs(d.MissingInB, d.SourceA, d.SourceB)
	if len(d.LabelMismatch) > 0 {
		fmt.Fprintf(&b, "  - %d ids with different labels\n", len(d.LabelMismatch))
		if len(d.LabelMismatch) <= 5 {
			for _, m := range d.LabelMismatch {
				fmt.Fprintf(&b, "    - %s: %q vs %q\n", m.ID, m.LabelA, m.LabelB)
			}
		}
	}
	return b.String()
}

// DiffOptions configures the diff operation
type DiffOptions struct {
	// MaxDifferences limits the number of differences tracked per kind (0 = unlimited)
	MaxDifferences int
}

// DefaultDiffOptions returns sensible default diff options
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// labelsByID maps each id to the first label it appears with.
func labelsByID(nodes []model.HierarchyNode) map[string]string {
	labels := make(map[string]string)
	model.Walk(nodes, func(n *model.HierarchyNode, _ int) bool {
		if _, ok := labels[n.ID]; !ok {
			labels[n.ID] = n.Label
		}
		return true
	})
	return labels
}

// DetectInconsistencies compares two hierarchies by id and label. Results
// are sorted by id.
func DetectInconsistencies(nodesA, nodesB []model.HierarchyNode, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA := labelsByID(nodesA)
	mapB := labelsByID(nodesB)
	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	for id := range mapA {
		if _, ok := mapB[id]; !ok {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for id, labelB := range mapB {
		labelA, ok := mapA[id]
		if !ok {
			diff.MissingInA = append(diff.MissingInA, id)
			continue
		}
		if labelA != labelB {
			diff.LabelMismatch = append(diff.LabelMismatch, LabelDifference{ID: id, LabelA: labelA, LabelB: labelB})
		}
	}

	sort.Strings(diff.MissingInA)
	sort.Strings(diff.MissingInB)
	sort.Slice(diff.LabelMismatch, func(i, j int) bool { return diff.LabelMismatch[i].ID < diff.LabelMismatch[j].ID })

	if n := opts.MaxDifferences; n > 0 {
		diff.MissingInA = truncate(diff.MissingInA, n)
		diff.MissingInB = truncate(diff.MissingInB, n)
		if len(diff.LabelMismatch) > n {
			diff.LabelMismatch = diff.LabelMismatch[:n]
		}
	}
	return diff
}

func truncate(ids []string, n int) []string {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

// CompareSources loads and compares two data sources
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	quiet := loader.ParseOptions{WarningHandler: func(string) {}}
	a, err := LoadFromSource(sourceA, quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}
	b, err := LoadFromSource(sourceB, quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(a.Hierarchy, b.Hierarchy, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent compares every pair of valid sources and
// returns the pairs that differ. Pairs that fail to load are skipped.
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) []SourceDiff {
	var diffs []SourceDiff
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}
			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				continue
			}
			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}
	return diffs
}
