// Package logging builds the stderr logger shared by the CLI and scanner.
package logging

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level name
// (debug, info, warn, error). An empty level means warn.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.WarnLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "cppdeps",
		Level:  lvl,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
