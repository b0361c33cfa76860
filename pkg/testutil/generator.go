// Package testutil provides hierarchy fixture generators for tests and
// benchmarks. All generators produce deterministic output for a fixed seed.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/hierview/pkg/model"
)

// GeneratorConfig controls fixture generation.
type GeneratorConfig struct {
	Seed             int64    // Random seed for determinism (0 = use current time)
	IDPrefix         string   // Prefix for ids (default: "Q")
	InstanceRatio    float64  // Share of leaves emitted as instances
	DescriptionRatio float64  // Share of nodes that get a description
	Vocabulary       []string // Words labels are built from
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:             42, // Deterministic
		IDPrefix:         "Q",
		InstanceRatio:    0.25,
		DescriptionRatio: 0.5,
		Vocabulary:       defaultVocabulary,
	}
}

var defaultVocabulary = []string{
	"audio", "device", "sensor", "optical", "digital", "analog", "thermal",
	"acoustic", "signal", "meter", "probe", "amplifier", "filter", "display",
	"microphone", "camera", "detector", "controller", "oscillator", "antenna",
}

// Generator creates hierarchy fixtures. Ids are unique across everything
// one Generator produces.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "Q"
	}
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = defaultVocabulary
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) nextID() string {
	g.next++
	return fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next)
}

func (g *Generator) word() string {
	return g.cfg.Vocabulary[g.rng.Intn(len(g.cfg.Vocabulary))]
}

// Node returns a fresh leaf with a generated label and, sometimes, a
// description.
func (g *Generator) Node() model.HierarchyNode {
	n := model.HierarchyNode{
		ID:    g.nextID(),
		Label: g.word() + " " + g.word(),
	}
	if g.rng.Float64() < g.cfg.DescriptionRatio {
		n.Description = fmt.Sprintf("a %s used for %s work", g.word(), g.word())
	}
	return n
}

// Tree returns a category root with depth levels below it. Every node above
// the last level has breadth children; on the last level a share of the
// children are instances.
func (g *Generator) Tree(depth, breadth int) model.HierarchyNode {
	if breadth < 1 {
		breadth = 1
	}
	root := g.Node()
	g.fill(&root, depth, breadth)
	return root
}

func (g *Generator) fill(n *model.HierarchyNode, depth, breadth int) {
	if depth <= 0 {
		return
	}
	for i := 0; i < breadth; i++ {
		child := g.Node()
		if depth == 1 && g.rng.Float64() < g.cfg.InstanceRatio {
			n.Instances = append(n.Instances, child)
			continue
		}
		g.fill(&child, depth-1, breadth)
		n.Subclasses = append(n.Subclasses, child)
	}
}

// Chain returns a category root with a single path of length subclasses
// below it.
func (g *Generator) Chain(length int) model.HierarchyNode {
	root := g.Node()
	tail := &root
	for i := 0; i < length; i++ {
		tail.Subclasses = []model.HierarchyNode{g.Node()}
		tail = &tail.Subclasses[0]
	}
	return root
}

// Circular returns a chain whose deepest node is a circular-reference stub
// pointing back at the root, the way the dataset builder writes a cycle it
// broke.
func (g *Generator) Circular(length int) model.HierarchyNode {
	root := g.Chain(length)
	tail := &root
	for len(tail.Subclasses) > 0 {
		tail = &tail.Subclasses[0]
	}
	tail.Subclasses = []model.HierarchyNode{{
		ID:    root.ID,
		Label: root.Label,
		Note:  model.NoteCircularReference,
	}}
	return root
}

// Dataset returns categories generated trees with metadata counts filled
// in.
func (g *Generator) Dataset(categories, depth, breadth int) *model.Dataset {
	ds := &model.Dataset{Hierarchy: make([]model.HierarchyNode, 0, categories)}
	for i := 0; i < categories; i++ {
		ds.Hierarchy = append(ds.Hierarchy, g.Tree(depth, breadth))
	}
	ds.Metadata = Metadata(ds.Hierarchy)
	return ds
}

// Metadata computes the counts a dataset builder would record for nodes.
func Metadata(nodes []model.HierarchyNode) *model.DatasetMetadata {
	meta := &model.DatasetMetadata{
		SeedItems:            len(nodes),
		TotalItemsDiscovered: len(model.CollectIDs(nodes)),
	}
	model.Walk(nodes, func(n *model.HierarchyNode, _ int) bool {
		meta.SubclassRelationships += len(n.Subclasses)
		meta.InstanceRelationships += len(n.Instances)
		return true
	})
	return meta
}

// ToJSON encodes a dataset the way the dataset builder writes it.
func ToJSON(ds *model.Dataset) ([]byte, error) {
	return json.MarshalIndent(ds, "", "  ")
}

// QuickTree creates a single-category tree with default settings.
func QuickTree(depth, breadth int) model.HierarchyNode {
	return NewDefault().Tree(depth, breadth)
}

// QuickDataset creates a dataset with default settings.
func QuickDataset(categories, depth, breadth int) *model.Dataset {
	return NewDefault().Dataset(categories, depth, breadth)
}

// Empty returns a dataset with no categories for edge case testing.
func Empty() *model.Dataset {
	return &model.Dataset{Hierarchy: []model.HierarchyNode{}}
}

// Single returns a dataset with one childless category.
func Single() *model.Dataset {
	return &model.Dataset{Hierarchy: []model.HierarchyNode{{ID: "Q1", Label: "single category"}}}
}
