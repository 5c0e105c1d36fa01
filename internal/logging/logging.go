// Package logging builds the zerolog logger used for one commitgen run.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Log output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// Options configures New.
type Options struct {
	Level   string // zerolog level name; empty selects DefaultLevel
	Format  string // FormatConsole or FormatJSON
	NoColor bool
}

// New returns a logger writing to w (os.Stderr when nil) tagged with a fresh
// trace_id. An unknown level or format is an error.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	lvl := DefaultLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q", opts.Level)
		}
		lvl = parsed
	}

	switch opts.Format {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (use %s or %s)", opts.Format, FormatConsole, FormatJSON)
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("trace_id", NewTraceID()).
		Logger(), nil
}

// NewTraceID returns a ULID identifying one run.
func NewTraceID() string {
	return ulid.Make().String()
}
