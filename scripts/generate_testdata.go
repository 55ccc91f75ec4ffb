//go:build ignore

// generate_testdata.go writes seeded point fields for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//   testdata/fields/small.json   (300 core points)
//   testdata/fields/medium.json  (2500 core points, the reference field)
//   testdata/fields/large.json   (10000 core points)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/export"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
)

type datasetSpec struct {
	name string
	size int
}

var datasets = []datasetSpec{
	{"small", 300},
	{"medium", 2500},
	{"large", 10000},
}

func main() {
	outputDir := "testdata/fields"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s field (%d core points)...\n", ds.name, ds.size)

		cfg := config.DefaultConfig()
		cfg.Map.PointCount = ds.size
		cfg.Map.Seed = int64(ds.size) // reproducible per size

		points, err := pointfield.Generate(pointfield.FromConfig(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate %s: %v\n", ds.name, err)
			os.Exit(1)
		}

		outputPath := filepath.Join(outputDir, ds.name+".json")
		dump := export.NewFieldDump(points, cfg.Categories, cfg.Map.Seed, nil)
		if err := dump.SaveJSON(outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}

		fmt.Printf("  Written %s (%d points, %d blended)\n", outputPath, dump.Summary.Total, dump.Summary.Blended)
	}

	fmt.Println("\nDone! Fields created in", outputDir)
}
