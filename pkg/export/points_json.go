package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
	"github.com/vanderheijden86/sensemap/pkg/sim"
	"github.com/vanderheijden86/sensemap/pkg/thumbnail"

	json "github.com/goccy/go-json"
)

// PointRecord is the JSON form of one generated point.
type PointRecord struct {
	ID           int                `json:"id"`
	X            float64            `json:"x"`
	Y            float64            `json:"y"`
	Weights      map[string]float64 `json:"weights"`
	Dominant     string             `json:"dominant"`
	TrueDominant string             `json:"true_dominant"`
	Blended      bool               `json:"blended,omitempty"`
	Color        string             `json:"color"`
	Radius       float64            `json:"radius"`
	Thumbnail    thumbnail.Ref      `json:"thumbnail"`
}

// FieldDump is the --export-json document: the field, its summary and
// optionally the frame that was rendered from it.
type FieldDump struct {
	Seed       int64                   `json:"seed"`
	Categories []model.Category        `json:"categories"`
	Summary    pointfield.FieldSummary `json:"summary"`
	Points     []PointRecord           `json:"points"`
	Frame      *sim.Frame              `json:"frame,omitempty"`
}

// NewFieldDump builds a dump of points. frame may be nil.
func NewFieldDump(points []model.Point, palette model.Palette, seed int64, frame *sim.Frame) FieldDump {
	recs := make([]PointRecord, len(points))
	for i, p := range points {
		dom, _ := p.TrueDominant(palette)
		weights := make(map[string]float64, len(p.Mixture))
		for k, v := range p.Mixture {
			weights[k] = v
		}
		recs[i] = PointRecord{
			ID:           p.ID,
			X:            p.Base.X,
			Y:            p.Base.Y,
			Weights:      weights,
			Dominant:     p.Dominant,
			TrueDominant: dom,
			Blended:      p.Blended,
			Color:        p.Color,
			Radius:       p.Radius,
			Thumbnail:    thumbnail.Resolve(p, palette),
		}
	}
	return FieldDump{
		Seed:       seed,
		Categories: append([]model.Category(nil), palette...),
		Summary:    pointfield.Summarize(points, palette),
		Points:     recs,
		Frame:      frame,
	}
}

// WriteJSON writes the dump as indented JSON.
func (d FieldDump) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding field dump: %w", err)
	}
	return nil
}

// SaveJSON writes the dump to path, creating parent directories.
func (d FieldDump) SaveJSON(path string) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := d.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
