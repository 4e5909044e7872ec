// Package debug provides opt-in dispatch diagnostics: filtered action
// tracing and detection of bindings that never fire.
package debug

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/roach88/strictflux/internal/dispatcher"
)

// DefaultUnusedTimeout is how long the tracker waits after the first
// dispatch before reporting bindings that never matched.
const DefaultUnusedTimeout = 30 * time.Second

// Config selects which diagnostics are produced. It never changes dispatch
// behavior.
type Config struct {
	// All traces every action.
	All bool `koanf:"all"`

	// Types traces actions whose type is listed.
	Types []string `koanf:"types"`

	// Sources traces actions whose source is listed.
	Sources []string `koanf:"sources"`

	// Unused warns about actions no store handled and about bound
	// identifiers that never matched within UnusedTimeout.
	Unused bool `koanf:"unused"`

	UnusedTimeout time.Duration `koanf:"unused_timeout"`
}

var current atomic.Pointer[Config]

func init() {
	current.Store(&Config{UnusedTimeout: DefaultUnusedTimeout})
}

// SetConfig replaces the process-wide diagnostics configuration.
func SetConfig(c Config) {
	if c.UnusedTimeout <= 0 {
		c.UnusedTimeout = DefaultUnusedTimeout
	}
	c.Types = slices.Clone(c.Types)
	c.Sources = slices.Clone(c.Sources)
	current.Store(&c)
}

// CurrentConfig returns the process-wide diagnostics configuration.
func CurrentConfig() Config {
	return *current.Load()
}

// Traces reports whether a should be traced under c.
func (c Config) Traces(a dispatcher.Action) bool {
	return c.All || slices.Contains(c.Types, a.Type) || (a.Source != "" && slices.Contains(c.Sources, a.Source))
}
