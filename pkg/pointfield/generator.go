// Package pointfield generates the static point dataset: cluster-core points
// scattered around thematic centers and blend points strung between pairs
// of centers.
package pointfield

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/debug"
	"github.com/vanderheijden86/sensemap/pkg/metrics"
	"github.com/vanderheijden86/sensemap/pkg/model"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// Generation defaults.
const (
	DefaultCount       = 2500
	DefaultSpread      = 300.0
	DefaultBlendJitter = 200.0
	DefaultMapWidth    = 4000.0
	DefaultMapHeight   = 3000.0

	CoreRadius   = 8.5
	CoreOpacity  = 0.9
	BlendRadius  = 7.0
	BlendOpacity = 0.8

	dominantBoost = 0.8
	noiseCeiling  = 0.2
)

// Config errors.
var (
	ErrNoCenters       = errors.New("at least one cluster center is required")
	ErrTooFewForBlends = errors.New("blend points need at least two cluster centers")
)

// Center is a world-space anchor tagged with its dominant category. Centers
// are only used during generation.
type Center struct {
	Pos      r2.Vec
	Category string
}

// Config controls point generation.
type Config struct {
	Count       int           // Core points; blend points = Count/3
	Spread      float64       // Standard deviation of core offsets
	BlendJitter float64       // Full width of the uniform jitter on blend points
	Centers     []Center      // Cluster centers
	Palette     model.Palette // Categories, in tie-breaking order
	Seed        int64         // Random seed (0 = time-seeded)
}

// DefaultConfig returns the reference configuration: 2500 core points around
// five centers on a 4000x3000 map.
func DefaultConfig() Config {
	palette := model.DefaultPalette()
	return Config{
		Count:       DefaultCount,
		Spread:      DefaultSpread,
		BlendJitter: DefaultBlendJitter,
		Centers:     DefaultCenters(DefaultMapWidth, DefaultMapHeight, palette),
		Palette:     palette,
	}
}

// centerLayout holds the relative center positions, one per palette slot.
var centerLayout = []r2.Vec{
	{X: 0.5, Y: 0.2},
	{X: 0.8, Y: 0.4},
	{X: 0.7, Y: 0.8},
	{X: 0.3, Y: 0.8},
	{X: 0.2, Y: 0.4},
}

// DefaultCenters places one center per palette category on the reference
// layout. Palettes longer than the layout wrap around it on a slightly
// smaller ring so centers stay distinct.
func DefaultCenters(width, height float64, palette model.Palette) []Center {
	centers := make([]Center, 0, len(palette))
	for i, c := range palette {
		rel := centerLayout[i%len(centerLayout)]
		if ring := i / len(centerLayout); ring > 0 {
			shrink := math.Pow(0.8, float64(ring))
			rel = r2.Vec{X: 0.5 + (rel.X-0.5)*shrink, Y: 0.5 + (rel.Y-0.5)*shrink}
		}
		centers = append(centers, Center{
			Pos:      r2.Vec{X: width * rel.X, Y: height * rel.Y},
			Category: c.Name,
		})
	}
	return centers
}

// Generator produces point fields.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	colors map[string]colorful.Color
}

// New validates cfg and creates a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("point count must be non-negative, got %d", cfg.Count)
	}
	if cfg.Spread < 0 {
		return nil, fmt.Errorf("cluster spread must be non-negative, got %g", cfg.Spread)
	}
	if err := cfg.Palette.Validate(); err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	if cfg.Count > 0 && len(cfg.Centers) == 0 {
		return nil, ErrNoCenters
	}
	if cfg.Count/3 > 0 && len(cfg.Centers) < 2 {
		return nil, ErrTooFewForBlends
	}

	colors := make(map[string]colorful.Color, len(cfg.Palette))
	for _, c := range cfg.Palette {
		col, _ := c.RGB() // validated above
		colors[c.Name] = col
	}
	for i, c := range cfg.Centers {
		if _, ok := colors[c.Category]; !ok {
			return nil, fmt.Errorf("center %d: unknown category %q", i, c.Category)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		colors: colors,
	}, nil
}

// Generate produces Count core points followed by Count/3 blend points.
// Core IDs run 0..Count-1, blend IDs continue from Count.
func (g *Generator) Generate() []model.Point {
	defer metrics.Timer(metrics.FieldGenerate)()

	blends := g.cfg.Count / 3
	points := make([]model.Point, 0, g.cfg.Count+blends)
	for i := 0; i < g.cfg.Count; i++ {
		points = append(points, g.corePoint(i))
	}
	for i := 0; i < blends; i++ {
		points = append(points, g.blendPoint(g.cfg.Count+i))
	}

	debug.Log("pointfield: generated %d core + %d blend points", g.cfg.Count, blends)
	return points
}

// gaussianPair draws two independent standard normal deviates from one pair
// of uniforms (Box–Muller). u is flipped into (0,1] so the log stays finite.
func (g *Generator) gaussianPair() (float64, float64) {
	u := 1 - g.rng.Float64()
	v := g.rng.Float64()
	r := math.Sqrt(-2.0 * math.Log(u))
	return r * math.Cos(2.0*math.Pi*v), r * math.Sin(2.0*math.Pi*v)
}

func (g *Generator) pickCenter() int {
	return g.rng.Intn(len(g.cfg.Centers))
}

func (g *Generator) corePoint(id int) model.Point {
	center := g.cfg.Centers[g.pickCenter()]
	z1, z2 := g.gaussianPair()

	mix := make(model.Mixture, len(g.cfg.Palette))
	for _, c := range g.cfg.Palette {
		mix[c.Name] = g.rng.Float64() * noiseCeiling
	}
	mix[center.Category] += dominantBoost
	mix.Normalize()

	return model.Point{
		ID:       id,
		Base:     r2.Add(center.Pos, r2.Vec{X: z1 * g.cfg.Spread, Y: z2 * g.cfg.Spread}),
		Mixture:  mix,
		Dominant: center.Category,
		Color:    g.colors[center.Category].Hex(),
		Radius:   CoreRadius,
		Opacity:  CoreOpacity,
		Sources:  [2]string{center.Category, center.Category},
	}
}

func (g *Generator) blendPoint(id int) model.Point {
	i1 := g.pickCenter()
	i2 := g.pickCenter()
	for i2 == i1 {
		i2 = g.pickCenter()
	}
	c1, c2 := g.cfg.Centers[i1], g.cfg.Centers[i2]

	t := g.rng.Float64()
	jitter := r2.Vec{
		X: (g.rng.Float64() - 0.5) * g.cfg.BlendJitter,
		Y: (g.rng.Float64() - 0.5) * g.cfg.BlendJitter,
	}
	pos := r2.Add(lerp(c1.Pos, c2.Pos, t), jitter)

	// Two centers may share a category; accumulate so the weights still sum to 1.
	mix := model.Mixture{}
	mix[c1.Category] += 1 - t
	mix[c2.Category] += t

	return model.Point{
		ID:       id,
		Base:     pos,
		Mixture:  mix,
		Dominant: model.Mixed,
		Blended:  true,
		Color:    g.colors[c1.Category].BlendRgb(g.colors[c2.Category], t).Hex(),
		Radius:   BlendRadius,
		Opacity:  BlendOpacity,
		T:        t,
		Sources:  [2]string{c1.Category, c2.Category},
	}
}

func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// Generate is a convenience wrapper around New and Generate.
func Generate(cfg Config) ([]model.Point, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return g.Generate(), nil
}
