package store

import (
	"fmt"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
)

// Mock drives a single store in tests, without the dispatcher.
type Mock struct {
	s *Store
}

// Mock returns the test facade for s.
func (s *Store) Mock() *Mock {
	return &Mock{s: s}
}

// Dispatch runs the store's handlers for a directly. Source defaults to empty
// and a nil payload becomes immutable.Null. The payload is frozen as in a real
// dispatch.
//
// Other stores are not involved, so WaitFor is a no-op inside the handlers.
// Subscribers are notified if any handler ran.
func (m *Mock) Dispatch(a dispatcher.Action) error {
	payload, err := immutable.Freeze(a.Payload)
	if err != nil {
		return fmt.Errorf("mock dispatch %s: %w", a, err)
	}
	a.Payload = payload

	ctx := m.s.ctx
	handlers := ctx.bindings.match(a)
	if len(handlers) == 0 {
		return nil
	}
	if err := m.s.runHandlers(ctx, handlers, a); err != nil {
		return err
	}
	m.s.notify()
	return nil
}

// Reset discards the store's fields and bindings and runs Init again. The
// store keeps its identity and dispatch token. Subscriptions are kept.
func (m *Mock) Reset() error {
	if err := m.s.init(); err != nil {
		return err
	}
	m.s.logger.Debug().Msg("store reset")
	return nil
}
