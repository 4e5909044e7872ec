package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/strictflux/internal/dispatcher"
)

var _ dispatcher.IDGenerator = (*SequenceGenerator)(nil)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("scn")

	assert.Equal(t, "scn-1", gen.Generate())
	assert.Equal(t, "scn-2", gen.Generate())
	assert.Equal(t, "scn-3", gen.Generate())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "dispatch-1", NewSequenceGenerator("").Generate())
}

func TestSequenceGenerator_Reset(t *testing.T) {
	gen := NewSequenceGenerator("")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "dispatch-1", gen.Generate())
}

func TestSequenceGenerator_Deterministic(t *testing.T) {
	a := NewSequenceGenerator("x")
	b := NewSequenceGenerator("x")
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestSequenceGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGenerator("")
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				id := gen.Generate()
				mu.Lock()
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
