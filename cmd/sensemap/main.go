package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/debug"
	"github.com/vanderheijden86/sensemap/pkg/export"
	"github.com/vanderheijden86/sensemap/pkg/metrics"
	"github.com/vanderheijden86/sensemap/pkg/model"
	"github.com/vanderheijden86/sensemap/pkg/pointfield"
	"github.com/vanderheijden86/sensemap/pkg/sim"
	"github.com/vanderheijden86/sensemap/pkg/ui"
	"github.com/vanderheijden86/sensemap/pkg/version"
	"github.com/vanderheijden86/sensemap/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"gonum.org/v1/gonum/spatial/r2"
)

// Exit codes.
const (
	exitRuntime = 1
	exitUsage   = 2
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	seed       int64
	points     int
	exportPNG  string
	exportSVG  string
	exportJSON string
	pointer    string
	width      int
	height     int
	duration   time.Duration
	metrics    bool
	cpuProfile string
	version    bool
	help       bool
}

func (o cliOptions) headless() bool {
	return o.exportPNG != "" || o.exportSVG != "" || o.exportJSON != ""
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, *flag.FlagSet, error) {
	var o cliOptions
	fs := flag.NewFlagSet("sensemap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Config file (default: ~/.config/sensemap/config.yaml)")
	fs.Int64Var(&o.seed, "seed", 0, "Random seed for the point field (0 = config or time)")
	fs.IntVar(&o.points, "points", 0, "Number of core points (0 = config)")
	fs.StringVar(&o.exportPNG, "export-png", "", "Render one frame to a PNG file and exit")
	fs.StringVar(&o.exportSVG, "export-svg", "", "Render one frame to an SVG file and exit")
	fs.StringVar(&o.exportJSON, "export-json", "", "Write the generated field as JSON and exit")
	fs.StringVar(&o.pointer, "pointer", "", "Pointer position x,y in screen pixels for exports")
	fs.IntVar(&o.width, "width", 0, "Export viewport width in pixels (0 = terminal size)")
	fs.IntVar(&o.height, "height", 0, "Export viewport height in pixels (0 = terminal size)")
	fs.DurationVar(&o.duration, "duration", 0, "Run the simulation for this long before exporting (0 = one frame)")
	fs.BoolVar(&o.metrics, "metrics", false, "Print timing metrics as JSON to stderr on exit")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	if err := fs.Parse(args); err != nil {
		return o, fs, err
	}
	if fs.NArg() > 0 {
		return o, fs, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if o.points < 0 {
		return o, fs, fmt.Errorf("--points must be non-negative, got %d", o.points)
	}
	if o.width < 0 || o.height < 0 {
		return o, fs, fmt.Errorf("--width and --height must be non-negative")
	}
	if o.duration < 0 {
		return o, fs, fmt.Errorf("--duration must be non-negative, got %v", o.duration)
	}
	if o.pointer != "" {
		if _, _, err := parsePointer(o.pointer); err != nil {
			return o, fs, err
		}
	}
	return o, fs, nil
}

// parsePointer parses "x,y".
func parsePointer(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("--pointer must be x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--pointer x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("--pointer y: %w", err)
	}
	return x, y, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.help {
		fmt.Fprintln(stdout, "Usage: sensemap [options]")
		fmt.Fprintln(stdout, "\nAn interactive map of sensory scenes.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}
	if opts.version {
		fmt.Fprintf(stdout, "sensemap %s\n", version.Version)
		return 0
	}

	if opts.cpuProfile != "" {
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return exitRuntime
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return exitRuntime
		}
		defer pprof.StopCPUProfile()
	}

	if opts.metrics {
		metrics.SetEnabled(true)
		defer func() {
			if err := metrics.Snapshot().WriteJSON(stderr); err != nil {
				fmt.Fprintf(stderr, "Error writing metrics: %v\n", err)
			}
		}()
	}

	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitRuntime
	}

	points, err := pointfield.Generate(pointfield.FromConfig(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "Error generating points: %v\n", err)
		return exitRuntime
	}
	debug.Log("main: generated %d points with seed %d", len(points), cfg.Map.Seed)

	if opts.headless() {
		if err := runExport(opts, cfg, points, stdout); err != nil {
			fmt.Fprintf(stderr, "Error exporting: %v\n", err)
			return exitRuntime
		}
		return 0
	}

	ctrl := sim.NewController(points, cfg.Categories, sim.OptionsFromConfig(cfg))
	override := func(c config.Config) config.Config {
		return applyOverrides(opts, c, cfg.Map.Seed)
	}
	if err := runTUI(ctrl, cfg, cfgPath, override); err != nil {
		fmt.Fprintf(stderr, "Error running sense map: %v\n", err)
		return exitRuntime
	}
	return 0
}

// loadConfig reads the config file and applies flag overrides. A zero seed
// is resolved here so exports can record the seed that was used.
func loadConfig(opts cliOptions) (config.Config, string, error) {
	path := opts.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, path, err
	}
	cfg = applyOverrides(opts, cfg, time.Now().UnixNano())
	return cfg, path, cfg.Validate()
}

// applyOverrides applies --seed and --points to cfg. fallbackSeed replaces a
// zero seed so reloads of a time-seeded config keep the same field.
func applyOverrides(opts cliOptions, cfg config.Config, fallbackSeed int64) config.Config {
	if opts.seed != 0 {
		cfg.Map.Seed = opts.seed
	}
	if opts.points > 0 {
		cfg.Map.PointCount = opts.points
	}
	if cfg.Map.Seed == 0 {
		cfg.Map.Seed = fallbackSeed
	}
	return cfg
}

// ============================================================================
// Headless export
// ============================================================================

// exportViewport picks the snapshot size: explicit flags first, then the
// terminal scaled to cell pixels, then 1280x800.
func exportViewport(opts cliOptions) (float64, float64) {
	w, h := opts.width, opts.height
	if w == 0 || h == 0 {
		tw, th := 160, 50
		if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 && rows > 0 {
			tw, th = cols, rows
		}
		if w == 0 {
			w = tw * ui.CellWidthPx
		}
		if h == 0 {
			h = th * ui.CellHeightPx
		}
	}
	return float64(w), float64(h)
}

func runExport(opts cliOptions, cfg config.Config, points []model.Point, stdout io.Writer) error {
	w, h := exportViewport(opts)
	o := sim.OptionsFromConfig(cfg)
	o.Viewport = r2.Vec{X: w, Y: h}

	rec := &export.FrameRecorder{}
	ctrl := sim.NewController(points, cfg.Categories, o)
	ctrl.SetRenderSink(rec)
	ctrl.SetPanelSink(rec)
	if opts.pointer != "" {
		x, y, err := parsePointer(opts.pointer)
		if err != nil {
			return err
		}
		ctrl.MovePointer(r2.Vec{X: x, Y: y})
	}
	frame, err := simulate(ctrl, rec, opts.duration)
	if err != nil {
		return err
	}

	summary := pointfield.Summarize(points, cfg.Categories)
	notes := []string{fmt.Sprintf("seed: %d  core: %d  blended: %d", cfg.Map.Seed, summary.Core, summary.Blended)}

	var (
		g       errgroup.Group
		written []string
	)
	for _, snap := range snapshotJobs(opts, notes, frame) {
		written = append(written, snapshotPath(snap))
		g.Go(func() error {
			return export.SaveSnapshot(snap)
		})
	}
	if opts.exportJSON != "" {
		written = append(written, opts.exportJSON)
		g.Go(func() error {
			dump := export.NewFieldDump(points, cfg.Categories, cfg.Map.Seed, &frame)
			return dump.SaveJSON(opts.exportJSON)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(stdout, "Wrote %s\n", path)
	}
	return nil
}

// simulate runs the frame and dismiss drivers for d and returns the last
// recorded frame. A zero d renders a single frame.
func simulate(ctrl *sim.Controller, rec *export.FrameRecorder, d time.Duration) (sim.Frame, error) {
	if d > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		defer cancel()
		if err := sim.NewLoop(ctrl).Run(ctx); err != nil {
			return sim.Frame{}, err
		}
		if f, ok := rec.Last(); ok {
			debug.Log("main: simulated %v, %d frames", d, rec.Frames())
			return f, nil
		}
	}
	f, _ := ctrl.Tick()
	return f, nil
}

func snapshotJobs(opts cliOptions, notes []string, frame sim.Frame) []export.SnapshotOptions {
	var jobs []export.SnapshotOptions
	add := func(path, format string) {
		if path == "" {
			return
		}
		jobs = append(jobs, export.SnapshotOptions{
			Path:   path,
			Format: format,
			Title:  "Sense Map",
			Notes:  notes,
			Frame:  frame,
		})
	}
	add(opts.exportPNG, export.FormatPNG)
	add(opts.exportSVG, export.FormatSVG)
	return jobs
}

// snapshotPath mirrors SaveSnapshot's extension handling for reporting.
func snapshotPath(opts export.SnapshotOptions) string {
	if filepath.Ext(opts.Path) == "" {
		return opts.Path + "." + opts.Format
	}
	return opts.Path
}

// ============================================================================
// TUI
// ============================================================================

func runTUI(ctrl *sim.Controller, cfg config.Config, cfgPath string, override func(config.Config) config.Config) error {
	if cfg.UI.DebugLog != "" && debug.Enabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.UI.DebugLog), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.UI.DebugLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				defer f.Close()
				debug.SetOutput(f)
			}
		}
	}

	m := ui.NewModel(ctrl, cfg)

	if _, err := os.Stat(cfgPath); err == nil {
		bridge := ui.NewReloadBridge()
		reloader, err := watcher.NewConfigReloader(cfgPath,
			func(c config.Config) { bridge.OnReload(override(c)) },
			bridge.OnError,
		)
		if err != nil {
			debug.Log("main: config watch disabled: %v", err)
		} else if err := reloader.Start(); err != nil {
			debug.Log("main: config watch disabled: %v", err)
		} else {
			defer reloader.Stop()
			m = m.WithReload(bridge)
		}
	}

	// The frame and dismiss drivers run as bubbletea ticks inside the
	// program, so no separate sim.Loop is started here.
	return runTUIProgram(m)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set SENSEMAP_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("SENSEMAP_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) {
		if err == tea.ErrProgramKilled || errors.Is(err, tea.ErrInterrupted) {
			return nil
		}
	}
	return err
}
