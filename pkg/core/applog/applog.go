// Package applog builds the process-wide structured logger.
package applog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/phuslu/log"
)

// Config controls logger construction.
type Config struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

var (
	mu      sync.RWMutex
	current = newLogger(Config{Level: "info", Format: "console"}, os.Stderr)
)

func newLogger(cfg Config, w io.Writer) *log.Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}

	var writer log.Writer
	if strings.EqualFold(cfg.Format, "json") {
		writer = &log.IOWriter{Writer: w}
	} else {
		writer = &log.ConsoleWriter{Writer: w}
	}

	return &log.Logger{
		Level:  log.ParseLevel(level),
		Writer: writer,
	}
}

// Init replaces the process logger with one built from cfg, writing to stderr.
func Init(cfg Config) {
	SetLogger(newLogger(cfg, os.Stderr))
}

// SetOutput replaces the process logger with one writing JSON lines to w.
// Tests use it to capture log output.
func SetOutput(w io.Writer, level string) {
	SetLogger(newLogger(Config{Level: level, Format: "json"}, w))
}

// SetLogger installs l as the process logger.
func SetLogger(l *log.Logger) {
	mu.Lock()
	current = l
	mu.Unlock()
}

// L returns the process logger.
func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Discard silences logging entirely.
func Discard() {
	SetLogger(newLogger(Config{Level: "error", Format: "json"}, io.Discard))
}
