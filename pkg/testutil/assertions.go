package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/sensemap/pkg/model"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultTolerance is the float tolerance used by the Near assertions.
const DefaultTolerance = 1e-9

// AssertNear verifies |got-want| <= tol.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol || math.IsNaN(got) {
		t.Errorf("%s: got %v, want %v (±%g)", name, got, want, tol)
	}
}

// AssertVecNear verifies both coordinates are within tol.
func AssertVecNear(t *testing.T, name string, got, want r2.Vec, tol float64) {
	t.Helper()
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol {
		t.Errorf("%s: got (%.6f, %.6f), want (%.6f, %.6f) (±%g)", name, got.X, got.Y, want.X, want.Y, tol)
	}
}

// AssertPointCount verifies the expected number of points.
func AssertPointCount(t *testing.T, points []model.Point, expected int) {
	t.Helper()
	if len(points) != expected {
		t.Errorf("expected %d points, got %d", expected, len(points))
	}
}

// AssertNoDuplicateIDs verifies all point IDs are unique.
func AssertNoDuplicateIDs(t *testing.T, points []model.Point) {
	t.Helper()
	seen := make(map[int]bool, len(points))
	for _, p := range points {
		if seen[p.ID] {
			t.Errorf("duplicate point ID: %d", p.ID)
		}
		seen[p.ID] = true
	}
}

// AssertMixturesValid verifies every mixture is non-negative and sums to 1.
func AssertMixturesValid(t *testing.T, points []model.Point) {
	t.Helper()
	for _, p := range points {
		if !p.Mixture.Valid() {
			t.Errorf("point %d has invalid mixture %v (sum %.9f)", p.ID, p.Mixture, p.Mixture.Sum())
		}
	}
}

// AssertSamePoints verifies two fields are identical point by point.
func AssertSamePoints(t *testing.T, a, b []model.Point) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if msg := diffPoint(a[i], b[i]); msg != "" {
			t.Errorf("point %d differs: %s", i, msg)
			return
		}
	}
}

func diffPoint(a, b model.Point) string {
	switch {
	case a.ID != b.ID:
		return fmt.Sprintf("id %d vs %d", a.ID, b.ID)
	case a.Base != b.Base:
		return fmt.Sprintf("base %v vs %v", a.Base, b.Base)
	case a.Dominant != b.Dominant:
		return fmt.Sprintf("dominant %s vs %s", a.Dominant, b.Dominant)
	case a.Color != b.Color:
		return fmt.Sprintf("color %s vs %s", a.Color, b.Color)
	case len(a.Mixture) != len(b.Mixture):
		return "mixture size"
	}
	for k, v := range a.Mixture {
		if b.Mixture[k] != v {
			return fmt.Sprintf("mixture[%s] %v vs %v", k, v, b.Mixture[k])
		}
	}
	return ""
}

// AssertJSONEqual compares two values after JSON encoding.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN is set, golden files are rewritten instead of compared.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()
	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}
	if string(expected) == actual {
		return
	}

	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}
