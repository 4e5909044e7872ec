package dispatcher

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/logging"
)

// tokenPrefix matches the conventional flux token shape ("ID_1", "ID_2", ...).
const tokenPrefix = "ID_"

// Dispatcher is the single synchronous broadcast channel for actions.
//
// Thread-safety model:
//   - Register / Unregister: safe from any goroutine, including from inside
//     a callback (the running dispatch keeps its snapshot)
//   - Dispatch: at most one at a time; a second call, from a callback or
//     another goroutine, fails with ErrDispatchInProgress
type Dispatcher struct {
	mu        sync.Mutex
	callbacks map[Token]Callback
	names     map[Token]string
	order     []Token

	tokens      *Clock
	seq         *Clock
	ids         IDGenerator
	observers   []Observer
	logger      zerolog.Logger
	dispatching atomic.Bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to logging.Logger("dispatcher").
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithIDGenerator sets the dispatch ID generator. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithObserver adds an observer. Observers are notified in the order added.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observers = append(d.observers, o)
	}
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		callbacks: make(map[Token]Callback),
		names:     make(map[Token]string),
		tokens:    NewClock(),
		seq:       NewClock(),
		ids:       UUIDv7Generator{},
		logger:    logging.Logger("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds cb to the registration table and returns its token.
// The callback is not invoked until the next Dispatch.
func (d *Dispatcher) Register(cb Callback) Token {
	return d.RegisterNamed("", cb)
}

// RegisterNamed is Register with a human-readable name used in diagnostics.
func (d *Dispatcher) RegisterNamed(name string, cb Callback) Token {
	tok := Token(fmt.Sprintf("%s%d", tokenPrefix, d.tokens.Next()))

	d.mu.Lock()
	d.callbacks[tok] = cb
	d.order = append(d.order, tok)
	if name != "" {
		d.names[tok] = name
	}
	d.mu.Unlock()

	d.logger.Debug().Str("token", string(tok)).Str("name", name).Msg("callback registered")
	return tok
}

// Unregister removes the callback for tok.
// Fails with ErrUnknownToken if tok is not registered.
func (d *Dispatcher) Unregister(tok Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.callbacks[tok]; !ok {
		return newUnknownTokenError(tok, "")
	}
	delete(d.callbacks, tok)
	delete(d.names, tok)
	d.order = slices.DeleteFunc(d.order, func(t Token) bool { return t == tok })

	d.logger.Debug().Str("token", string(tok)).Msg("callback unregistered")
	return nil
}

// Name returns the diagnostic name of tok, or the token itself if it has none.
func (d *Dispatcher) Name(tok Token) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name, ok := d.names[tok]; ok {
		return name
	}
	return string(tok)
}

// Tokens returns the registered tokens in registration order.
func (d *Dispatcher) Tokens() []Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.order)
}

// IsDispatching reports whether a dispatch is underway.
func (d *Dispatcher) IsDispatching() bool {
	return d.dispatching.Load()
}

// Dispatch delivers a to every registered callback.
//
// The payload is frozen first; a payload with no immutable representation
// fails with immutable.ErrUnfreezable before any callback runs. Callbacks are
// then invoked in registration order, with WaitFor pulling dependencies
// forward. The first error aborts the dispatch and is returned.
//
// Funcs registered with Context.Defer run after the dispatching flag is
// released, so they may dispatch again.
func (d *Dispatcher) Dispatch(a Action) error {
	if !d.dispatching.CompareAndSwap(false, true) {
		return newInProgressError(a.Type)
	}

	ctx, err := d.run(a)
	if err != nil {
		return err
	}
	for _, fn := range ctx.deferred {
		fn()
	}
	return nil
}

func (d *Dispatcher) run(a Action) (*Context, error) {
	defer d.dispatching.Store(false)

	payload, err := immutable.Freeze(a.Payload)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", a, err)
	}
	a.Payload = payload

	ctx := d.newContext(a)
	log := d.logger.With().
		Str("dispatch_id", ctx.info.ID).
		Int64("seq", ctx.info.Seq).
		Str("type", a.Type).
		Str("source", a.Source).
		Logger()

	log.Debug().Int("callbacks", len(ctx.order)).Msg("dispatch started")
	for _, o := range d.observers {
		o.BeforeDispatch(ctx.info)
	}

	for _, tok := range ctx.order {
		if ctx.entries[tok].state != statePending {
			continue
		}
		if err := ctx.invoke(tok); err != nil {
			break
		}
	}
	ctx.done = true

	result := DispatchResult{
		Invoked:  ctx.invoked,
		Matched:  ctx.matched,
		Duration: time.Since(ctx.info.Started),
		Err:      ctx.err,
	}
	for _, o := range d.observers {
		o.AfterDispatch(ctx.info, result)
	}

	if ctx.err != nil {
		log.Debug().Err(ctx.err).Msg("dispatch failed")
		return nil, ctx.err
	}
	log.Debug().
		Int("invoked", len(result.Invoked)).
		Int("matched", len(result.Matched)).
		Dur("duration", result.Duration).
		Msg("dispatch finished")
	return ctx, nil
}

// newContext snapshots the registration table for one dispatch.
func (d *Dispatcher) newContext(a Action) *Context {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make(map[Token]*entry, len(d.order))
	for _, tok := range d.order {
		entries[tok] = &entry{callback: d.callbacks[tok], state: statePending}
	}

	return &Context{
		d: d,
		info: DispatchInfo{
			ID:      d.ids.Generate(),
			Seq:     d.seq.Next(),
			Action:  a,
			Started: time.Now(),
		},
		entries: entries,
		order:   slices.Clone(d.order),
	}
}
