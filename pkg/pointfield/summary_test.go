package pointfield

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

func TestSummarize_ClusterStatistics(t *testing.T) {
	cfg := seeded(2024)
	points, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sum := Summarize(points, cfg.Palette)

	if sum.Total != len(points) || sum.Core != 2500 || sum.Blended != 833 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if len(sum.Clusters) != len(cfg.Palette) {
		t.Fatalf("expected %d clusters, got %d", len(cfg.Palette), len(sum.Clusters))
	}

	// Centers are picked uniformly: 500 expected each, binomial σ ≈ 20.
	counts := make([]float64, len(sum.Clusters))
	for i, c := range sum.Clusters {
		counts[i] = float64(c.Count)
	}
	mean, std := stat.MeanStdDev(counts, nil)
	if math.Abs(mean-500) > 1e-9 {
		t.Errorf("mean cluster size %v, want 500", mean)
	}
	if std > 60 {
		t.Errorf("cluster sizes too uneven: std %v (%v)", std, counts)
	}

	centers := make(map[string]r2.Vec)
	for _, c := range cfg.Centers {
		centers[c.Category] = c.Pos
	}
	for _, c := range sum.Clusters {
		// Centroid of ~500 samples with σ=300 lies within a few standard errors.
		if d := r2.Norm(r2.Sub(c.Centroid, centers[c.Category])); d > 60 {
			t.Errorf("%s centroid %v is %.1f from center", c.Category, c.Centroid, d)
		}
		for _, s := range []float64{c.StdDevX, c.StdDevY} {
			if math.Abs(s-cfg.Spread) > 40 {
				t.Errorf("%s spread %.1f, want ≈%.0f", c.Category, s, cfg.Spread)
			}
		}
	}

	if sum.Bounds.Min.X >= sum.Bounds.Max.X || sum.Bounds.Min.Y >= sum.Bounds.Max.Y {
		t.Errorf("degenerate bounds %+v", sum.Bounds)
	}
}

func TestSummarize_Empty(t *testing.T) {
	sum := Summarize(nil, DefaultConfig().Palette)
	if sum.Total != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
}
