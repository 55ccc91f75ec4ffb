package metrics

import (
	"fmt"
	"io"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
)

// Report is the --metrics output: timing stats plus a memory snapshot.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Timings     []TimingStats `json:"timings"`
	HeapAllocMB float64       `json:"heap_alloc_mb"`
	NumGC       uint32        `json:"num_gc"`
	Goroutines  int           `json:"goroutines"`
}

// Snapshot collects the current report.
func Snapshot() Report {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Report{
		GeneratedAt: time.Now().UTC(),
		Timings:     AllTimingStats(),
		HeapAllocMB: float64(ms.HeapAlloc) / (1 << 20),
		NumGC:       ms.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding metrics report: %w", err)
	}
	return nil
}
