package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/logging"
)

const defaultDisplayName = "Store"

// Store is the external handle to a store. It exposes only public methods,
// the dispatch token and change subscriptions.
//
// Thread-safety: Call may run on any goroutine, concurrently with a dispatch.
// Field access is guarded per field, so a public method reading several
// fields during a dispatch may see a mix of old and new values. Mock().Reset
// must not run concurrently with anything else.
type Store struct {
	d      *dispatcher.Dispatcher
	cfg    Config
	name   string
	logger zerolog.Logger

	ctx   *Context
	token dispatcher.Token

	mu          sync.Mutex
	subscribers []*subscriber
}

type subscriber struct {
	fn func()
}

// New validates cfg, runs Init and returns the store.
//
// If Init fails, any registration it made is removed and the error returned.
func New(d *dispatcher.Dispatcher, cfg Config) (*Store, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", ErrInvalidStoreConfiguration)
	}
	if err := cfg.validate(); err != nil {
		if cfg.DisplayName != "" {
			return nil, fmt.Errorf("%s: %w", cfg.DisplayName, err)
		}
		return nil, err
	}

	cfg = cfg.clone()
	name := cfg.DisplayName
	if name == "" {
		name = defaultDisplayName
	}

	s := &Store{
		d:      d,
		cfg:    cfg,
		name:   name,
		logger: logging.Logger("store").With().Str("store", name).Logger(),
	}
	if err := s.init(); err != nil {
		if s.token != "" {
			_ = d.Unregister(s.token)
		}
		return nil, err
	}

	s.logger.Debug().
		Str("token", string(s.token)).
		Strs("bindings", s.ctx.bindings.identifiers()).
		Msg("store created")
	return s, nil
}

// init builds a fresh context and runs Init against it.
func (s *Store) init() error {
	ctx := newContext(s)
	err := s.cfg.Init(ctx)
	ctx.sealed = true
	if err != nil {
		return fmt.Errorf("%s: init: %w", s.name, err)
	}
	s.ctx = ctx
	return nil
}

// ensureRegistered registers the store-level dispatcher callback once.
func (s *Store) ensureRegistered() {
	if s.token == "" {
		s.token = s.d.RegisterNamed(s.name, s.handleAction)
	}
}

// DisplayName returns the store's name.
func (s *Store) DisplayName() string { return s.name }

// DispatchToken returns the store's dispatcher token, for use in other
// stores' WaitFor. It is empty if the store never bound an action.
func (s *Store) DispatchToken() dispatcher.Token { return s.token }

// Has reports whether name is a public method. Private methods are invisible.
func (s *Store) Has(name string) bool {
	_, ok := s.cfg.Public[name]
	return ok
}

// Methods returns the public method names, sorted.
func (s *Store) Methods() []string {
	return slices.Sorted(maps.Keys(s.cfg.Public))
}

// Call invokes a public method. The return value must be immutable; anything
// else fails with a *MutableLeakError.
func (s *Store) Call(name string, args ...any) (any, error) {
	m, ok := s.cfg.Public[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, s.name, name)
	}

	v, err := m(s.ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", s.name, name, err)
	}
	if !immutable.IsImmutable(v) {
		return nil, &MutableLeakError{Store: s.name, Method: name, Type: fmt.Sprintf("%T", v)}
	}
	return v, nil
}

// Subscribe registers fn to be called after each dispatch that this store
// handled. The returned func removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	sub := &subscriber{fn: fn}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(x *subscriber) bool { return x == sub })
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

// handleAction is the store-level dispatcher callback.
func (s *Store) handleAction(dctx *dispatcher.Context, a dispatcher.Action) error {
	ctx := s.ctx
	handlers := ctx.bindings.match(a)
	if len(handlers) == 0 {
		return nil
	}

	dctx.MarkHandled()
	ctx.dispatch = dctx
	defer func() { ctx.dispatch = nil }()

	if err := s.runHandlers(ctx, handlers, a); err != nil {
		return err
	}
	dctx.Defer(s.notify)
	return nil
}

func (s *Store) runHandlers(ctx *Context, handlers []boundHandler, a dispatcher.Action) error {
	for _, h := range handlers {
		s.logger.Trace().Str("type", a.Type).Str("handler", h.name).Msg("handling action")
		if err := h.fn(ctx, a.Payload); err != nil {
			return fmt.Errorf("%s: %s handling %s: %w", s.name, h.name, a, err)
		}
	}
	return nil
}

// Identifiers returns the action identifiers the store has bound, in binding
// order.
func (s *Store) Identifiers() []string {
	return s.ctx.bindings.identifiers()
}
