package debug

import (
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/strictflux/internal/dispatcher"
)

// Tracker records which bound identifiers have matched a dispatched action.
//
// Thread-safety: Tracker is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	now   func() time.Time
	bound map[string][]string // store → identifiers
	seen  map[string]bool
	first time.Time
}

// NewTracker creates a tracker. now defaults to time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:   now,
		bound: make(map[string][]string),
		seen:  make(map[string]bool),
	}
}

// Track records the identifiers a store has bound.
func (t *Tracker) Track(store string, identifiers []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bound[store] = slices.Clone(identifiers)
}

// Observe marks the action's type and source as seen.
func (t *Tracker) Observe(a dispatcher.Action) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.first.IsZero() {
		t.first = t.now()
	}
	t.seen[norm.NFC.String(a.Type)] = true
	if a.Source != "" {
		t.seen[norm.NFC.String(a.Source)] = true
	}
}

// Unused returns, per store, the bound identifiers that have not matched any
// action. It returns nil until timeout has passed since the first observed
// dispatch.
func (t *Tracker) Unused(timeout time.Duration) map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.first.IsZero() || t.now().Sub(t.first) < timeout {
		return nil
	}

	out := make(map[string][]string)
	for _, store := range slices.Sorted(maps.Keys(t.bound)) {
		for _, id := range t.bound[store] {
			if !t.seen[id] {
				out[store] = append(out[store], id)
			}
		}
	}
	return out
}

// Bindings is the view of a store the tracker needs. *store.Store
// implements it.
type Bindings interface {
	DisplayName() string
	Identifiers() []string
}

// TrackStores calls Track for each store.
func (t *Tracker) TrackStores(stores ...Bindings) {
	for _, s := range stores {
		t.Track(s.DisplayName(), s.Identifiers())
	}
}
