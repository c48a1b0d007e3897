// Package logging builds the slog logger used by the command-line client.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the level, format and destination of log output.
type Options struct {
	Level  string // trace|debug|info|warn|error|off
	Format string // text|json
	Output io.Writer
}

// levelOff is above every level slog emits.
const levelOff = slog.Level(100)

// New returns a logger for opts. Unknown levels fall back to info and
// unknown formats to text.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case FormatJSON:
		h = slog.NewJSONHandler(out, hopts)
	default:
		h = slog.NewTextHandler(out, hopts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog level. The second result is false
// for empty or unrecognised input.
func ParseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace", "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "off", "none", "disabled":
		return levelOff, true
	default:
		return slog.LevelInfo, false
	}
}
