//go:build ignore

// generate_testdata.go creates standard hierarchy datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.json   (3 categories, ~470 nodes)
//	testdata/benchmark/medium.json  (5 categories, ~47k nodes)
//	testdata/benchmark/large.json   (8 categories, ~157k nodes)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/hierview/pkg/testutil"
)

type datasetSpec struct {
	name       string
	categories int
	depth      int
	breadth    int
}

var datasets = []datasetSpec{
	{"small", 3, 3, 5},
	{"medium", 5, 5, 6},
	{"large", 8, 5, 7},
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, spec := range datasets {
		fmt.Printf("Generating %s dataset (%d categories, depth %d, breadth %d)...\n",
			spec.name, spec.categories, spec.depth, spec.breadth)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:             int64(spec.categories*100 + spec.depth), // Reproducible per-size
			InstanceRatio:    0.3,
			DescriptionRatio: 0.6,
		})
		ds := gen.Dataset(spec.categories, spec.depth, spec.breadth)
		ds.Metadata.Endpoint = "https://query.example.org/sparql"

		data, err := testutil.ToJSON(ds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode %s: %v\n", spec.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, spec.name+".json")
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d bytes, %d nodes)\n", outputPath, len(data), testutil.CountNodes(ds.Hierarchy))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
