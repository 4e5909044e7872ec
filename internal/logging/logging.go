// Package logging configures the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()
)

// Setup configures the base logger from a verbosity level:
// 0 = warn, 1 = info, 2 = debug, 3+ = trace.
// Output is written to w using zerolog's console writer unless json is true.
func Setup(w io.Writer, verbosity int, json bool) {
	level := zerolog.WarnLevel
	switch {
	case verbosity == 1:
		level = zerolog.InfoLevel
	case verbosity == 2:
		level = zerolog.DebugLevel
	case verbosity >= 3:
		level = zerolog.TraceLevel
	}

	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}

	mu.Lock()
	base = logger
	mu.Unlock()

	logger.Debug().Int("verbosity", verbosity).Msg("logger initialized")
}

// SetOutput replaces the base logger. Tests use it with zerolog.Nop() or a
// buffer-backed logger.
func SetOutput(logger zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
}

// Logger returns a logger tagged with the given component name.
func Logger(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", component).Logger()
}
