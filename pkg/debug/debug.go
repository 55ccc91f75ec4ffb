// Package debug provides conditional debug logging for sensemap.
//
// Debug logging is enabled by setting the SENSEMAP_DEBUG environment variable:
//
//	SENSEMAP_DEBUG=1 sensemap --export-png map.png
//
// When enabled, messages go to stderr with timestamps. When disabled (the
// default) every function returns immediately.
//
// The TUI owns the terminal, so it redirects output to a file with
// SetOutput before starting the program.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[SENSEMAP] "

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("SENSEMAP_DEBUG") != "" {
		enabled = true
		logger = newLogger(os.Stderr)
	}
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled turns debug logging on or off, creating a stderr logger if
// none was configured.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = newLogger(os.Stderr)
	}
}

// SetOutput redirects debug output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

func active() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if l := active(); l != nil {
		l.Printf(format, args...)
	}
}

// LogIf writes a debug message only if cond is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogTiming writes a timing message.
func LogTiming(name string, d time.Duration) {
	if l := active(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogEnterExit logs entry and exit with timing:
//
//	defer debug.LogEnterExit("export")()
func LogEnterExit(name string) func() {
	l := active()
	if l == nil {
		return func() {}
	}
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if l := active(); l != nil {
		l.Printf("%s: %T = %+v", name, v, v)
	}
}

// AssertNoError panics if err is non-nil. Only active when debug is enabled.
func AssertNoError(err error, context string) {
	l := active()
	if l == nil || err == nil {
		return
	}
	l.Printf("ASSERTION FAILED: %s: %v", context, err)
	panic(fmt.Sprintf("debug assertion failed: %s: %v", context, err))
}
