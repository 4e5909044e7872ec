package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces dispatch IDs "<prefix>-1", "<prefix>-2", ...
//
// Unlike dispatcher.FixedGenerator it never runs out, so it suits scenarios
// whose dispatch count is not known up front. Two generators with the same
// prefix produce identical sequences, which keeps golden traces stable.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequenceGenerator creates a generator. An empty prefix defaults to
// "dispatch".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "dispatch"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate implements dispatcher.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset, the next call to Generate
// returns "<prefix>-1".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
