package pointfield

import (
	"math"

	"github.com/vanderheijden86/sensemap/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// ClusterSummary describes the core points generated for one category.
type ClusterSummary struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Centroid r2.Vec  `json:"centroid"`
	StdDevX  float64 `json:"std_dev_x"`
	StdDevY  float64 `json:"std_dev_y"`
}

// FieldSummary aggregates a generated field.
type FieldSummary struct {
	Total    int              `json:"total"`
	Core     int              `json:"core"`
	Blended  int              `json:"blended"`
	Bounds   r2.Box           `json:"bounds"`
	Clusters []ClusterSummary `json:"clusters"`
}

// Summarize computes per-category core statistics in palette order.
// Categories without core points are reported with a zero count.
func Summarize(points []model.Point, palette model.Palette) FieldSummary {
	xs := make(map[string][]float64, len(palette))
	ys := make(map[string][]float64, len(palette))

	var sum FieldSummary
	sum.Total = len(points)
	for i, p := range points {
		// Box.Union treats degenerate boxes as empty, so grow by hand.
		if i == 0 {
			sum.Bounds = r2.Box{Min: p.Base, Max: p.Base}
		} else {
			sum.Bounds.Min.X = math.Min(sum.Bounds.Min.X, p.Base.X)
			sum.Bounds.Min.Y = math.Min(sum.Bounds.Min.Y, p.Base.Y)
			sum.Bounds.Max.X = math.Max(sum.Bounds.Max.X, p.Base.X)
			sum.Bounds.Max.Y = math.Max(sum.Bounds.Max.Y, p.Base.Y)
		}
		if p.Blended {
			sum.Blended++
			continue
		}
		sum.Core++
		xs[p.Dominant] = append(xs[p.Dominant], p.Base.X)
		ys[p.Dominant] = append(ys[p.Dominant], p.Base.Y)
	}

	for _, c := range palette {
		cs := ClusterSummary{Category: c.Name, Count: len(xs[c.Name])}
		if cs.Count > 0 {
			var mx, my float64
			mx, cs.StdDevX = stat.MeanStdDev(xs[c.Name], nil)
			my, cs.StdDevY = stat.MeanStdDev(ys[c.Name], nil)
			cs.Centroid = r2.Vec{X: mx, Y: my}
		}
		sum.Clusters = append(sum.Clusters, cs)
	}
	return sum
}
