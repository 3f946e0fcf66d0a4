// Package logger builds the zerolog logger shared by the relay service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "application-relay"

// New returns a logger at the given level. Development gets human readable
// console output; otherwise the logger writes JSON lines. When out is nil the
// logger writes to stdout.
func New(development bool, level string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	if out == nil {
		out = os.Stdout
	}
	if development {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger(), nil
}

// ParseLevel maps a case-insensitive level name to a zerolog level; blank means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(level)
}

// SetGlobals applies the process-wide zerolog settings. Call it once at startup.
func SetGlobals() {
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = false
}
