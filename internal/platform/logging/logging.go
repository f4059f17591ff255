// Package logging builds the hclog loggers shared by the engine components.
package logging

import (
	"io"
	"os"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

const defaultLevel = hclog.Info

// New returns a named logger writing to output. An empty or unknown level
// falls back to info.
func New(name, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}
	lvl := hclog.LevelFromString(strings.TrimSpace(level))
	if lvl == hclog.NoLevel {
		lvl = defaultLevel
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: output,
	})
}

// Discard is used where the caller has not configured logging.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}

// OrDiscard returns l, or a null logger when l is nil.
func OrDiscard(l hclog.Logger) hclog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
