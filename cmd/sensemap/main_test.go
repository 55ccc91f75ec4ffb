package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/sensemap/pkg/config"
	"github.com/vanderheijden86/sensemap/pkg/version"

	json "github.com/goccy/go-json"
)

func TestParsePointer(t *testing.T) {
	tests := []struct {
		in      string
		x, y    float64
		wantErr bool
	}{
		{"10,20", 10, 20, false},
		{" 1.5 , -3 ", 1.5, -3, false},
		{"10", 0, 0, true},
		{"a,2", 0, 0, true},
		{"1,b", 0, 0, true},
	}
	for _, tt := range tests {
		x, y, err := parsePointer(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePointer(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (x != tt.x || y != tt.y) {
			t.Errorf("parsePointer(%q) = (%v, %v), want (%v, %v)", tt.in, x, y, tt.x, tt.y)
		}
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o cliOptions)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o cliOptions) {
				if o.headless() {
					t.Error("no export flags means interactive mode")
				}
			},
		},
		{
			name: "export",
			args: []string{"--export-png", "out.png", "--seed", "7", "--points", "30", "--pointer", "5,6"},
			check: func(t *testing.T, o cliOptions) {
				if !o.headless() || o.seed != 7 || o.points != 30 || o.pointer != "5,6" {
					t.Errorf("unexpected options %+v", o)
				}
			},
		},
		{name: "negative points", args: []string{"--points", "-1"}, wantErr: true},
		{name: "negative width", args: []string{"--width", "-5"}, wantErr: true},
		{name: "negative duration", args: []string{"--duration", "-1s"}, wantErr: true},
		{name: "bad pointer", args: []string{"--pointer", "nope"}, wantErr: true},
		{name: "stray argument", args: []string{"extra"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, err := parseFlags(tt.args, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	got := applyOverrides(cliOptions{points: 12}, cfg, 99)
	if got.Map.PointCount != 12 || got.Map.Seed != 99 {
		t.Errorf("got count %d seed %d", got.Map.PointCount, got.Map.Seed)
	}

	cfg.Map.Seed = 3
	if got := applyOverrides(cliOptions{}, cfg, 99); got.Map.Seed != 3 {
		t.Errorf("a configured seed must win over the fallback, got %d", got.Map.Seed)
	}
	if got := applyOverrides(cliOptions{seed: 8}, cfg, 99); got.Map.Seed != 8 {
		t.Errorf("--seed must win, got %d", got.Map.Seed)
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if code := run([]string{"--version"}, &out, &bytes.Buffer{}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), version.Version) {
		t.Errorf("output %q lacks version", out.String())
	}
}

func TestRun_UsageError(t *testing.T) {
	var errOut bytes.Buffer
	if code := run([]string{"--points", "-2"}, &bytes.Buffer{}, &errOut); code != exitUsage {
		t.Errorf("exit code %d, want %d", code, exitUsage)
	}
	if !strings.Contains(errOut.String(), "--points") {
		t.Errorf("stderr %q should name the flag", errOut.String())
	}
}

func TestRun_BadConfig(t *testing.T) {
	t.Setenv(config.SeedEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("map: [not, a, map"), 0o644); err != nil {
		t.Fatal(err)
	}
	code := run([]string{"--config", path, "--export-json", filepath.Join(dir, "f.json")}, &bytes.Buffer{}, &bytes.Buffer{})
	if code != exitRuntime {
		t.Errorf("exit code %d, want %d", code, exitRuntime)
	}
}

func TestRun_HeadlessExport(t *testing.T) {
	t.Setenv(config.SeedEnv, "")
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "map.png")
	svgPath := filepath.Join(dir, "map") // extension appended
	jsonPath := filepath.Join(dir, "field.json")

	var out, errOut bytes.Buffer
	code := run([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--seed", "7",
		"--points", "30",
		"--width", "640",
		"--height", "480",
		"--pointer", "320,240",
		"--export-png", pngPath,
		"--export-svg", svgPath,
		"--export-json", jsonPath,
	}, &out, &errOut)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}

	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 640 {
		t.Errorf("png width = %d", img.Bounds().Dx())
	}

	svgData, err := os.ReadFile(svgPath + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svgData), "Sense Map") {
		t.Error("svg should carry the title")
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var dump struct {
		Seed   int64             `json:"seed"`
		Points []json.RawMessage `json:"points"`
		Frame  *struct {
			Seq uint64 `json:"seq"`
		} `json:"frame"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dump.Seed != 7 {
		t.Errorf("seed = %d", dump.Seed)
	}
	if len(dump.Points) != 40 {
		t.Errorf("expected 30 core + 10 blend points, got %d", len(dump.Points))
	}
	if dump.Frame == nil || dump.Frame.Seq == 0 {
		t.Error("dump should include the rendered frame")
	}

	for _, want := range []string{pngPath, svgPath + ".svg", jsonPath} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout should report %s", want)
		}
	}
}

func TestRun_SameSeedSameField(t *testing.T) {
	t.Setenv(config.SeedEnv, "")
	dir := t.TempDir()
	export := func(name string) []byte {
		path := filepath.Join(dir, name)
		code := run([]string{
			"--config", filepath.Join(dir, "missing.yaml"),
			"--seed", "11", "--points", "60",
			"--width", "640", "--height", "480",
			"--export-json", path,
		}, &bytes.Buffer{}, &bytes.Buffer{})
		if code != 0 {
			t.Fatalf("exit code %d", code)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var dump struct {
			Points json.RawMessage `json:"points"`
		}
		if err := json.Unmarshal(data, &dump); err != nil {
			t.Fatal(err)
		}
		return dump.Points
	}
	if !bytes.Equal(export("a.json"), export("b.json")) {
		t.Error("the same seed should generate the same field")
	}
}

func TestRun_DurationRunsTheLoop(t *testing.T) {
	t.Setenv(config.SeedEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "field.json")
	code := run([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--seed", "3", "--points", "20",
		"--width", "640", "--height", "480",
		"--duration", "150ms",
		"--export-json", path,
	}, &bytes.Buffer{}, &bytes.Buffer{})
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var dump struct {
		Frame *struct {
			Seq uint64 `json:"seq"`
		} `json:"frame"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatal(err)
	}
	if dump.Frame == nil || dump.Frame.Seq < 2 {
		t.Errorf("a timed run should record several frames, got %+v", dump.Frame)
	}
}
