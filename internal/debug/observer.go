package debug

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/logging"
)

// Namer resolves dispatch tokens to store names. *dispatcher.Dispatcher
// implements it.
type Namer interface {
	Name(tok dispatcher.Token) string
}

// Observer logs dispatches according to the current Config. Register it with
// dispatcher.WithObserver.
type Observer struct {
	names   Namer
	tracker *Tracker
	logger  zerolog.Logger
	config  func() Config

	mu       sync.Mutex
	reported bool
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithTracker sets the unused-binding tracker.
func WithTracker(t *Tracker) ObserverOption {
	return func(o *Observer) { o.tracker = t }
}

// WithLogger sets the logger. Defaults to logging.Logger("debug").
func WithLogger(l zerolog.Logger) ObserverOption {
	return func(o *Observer) { o.logger = l }
}

// WithConfig fixes the configuration instead of reading CurrentConfig on
// every dispatch.
func WithConfig(c Config) ObserverOption {
	return func(o *Observer) {
		if c.UnusedTimeout <= 0 {
			c.UnusedTimeout = DefaultUnusedTimeout
		}
		o.config = func() Config { return c }
	}
}

// NewObserver creates an Observer. names may be nil, in which case tokens are
// logged as is.
func NewObserver(names Namer, opts ...ObserverOption) *Observer {
	o := &Observer{
		names:   names,
		tracker: NewTracker(nil),
		logger:  logging.Logger("debug"),
		config:  CurrentConfig,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tracker returns the observer's tracker.
func (o *Observer) Tracker() *Tracker { return o.tracker }

// BeforeDispatch implements dispatcher.Observer.
func (o *Observer) BeforeDispatch(info dispatcher.DispatchInfo) {
	if o.config().Traces(info.Action) {
		o.logger.Debug().
			Str("dispatch_id", info.ID).
			Str("type", info.Action.Type).
			Msg("dispatch started")
	}
}

// AfterCallback implements dispatcher.Observer.
func (o *Observer) AfterCallback(info dispatcher.DispatchInfo, tok dispatcher.Token, err error) {
	if err != nil && o.config().Traces(info.Action) {
		o.logger.Debug().
			Str("dispatch_id", info.ID).
			Str("store", o.name(tok)).
			Err(err).
			Msg("callback failed")
	}
}

// AfterDispatch implements dispatcher.Observer.
func (o *Observer) AfterDispatch(info dispatcher.DispatchInfo, result dispatcher.DispatchResult) {
	cfg := o.config()
	a := info.Action

	if cfg.Traces(a) {
		handled := make([]string, len(result.Matched))
		for i, tok := range result.Matched {
			handled[i] = o.name(tok)
		}
		ev := o.logger.Info()
		if result.Err != nil {
			ev = o.logger.Error().Err(result.Err)
		}
		ev.Str("dispatch_id", info.ID).
			Int64("seq", info.Seq).
			Str("type", a.Type).
			Str("source", a.Source).
			Interface("payload", a.Payload).
			Strs("handled_by", handled).
			Dur("elapsed", result.Duration).
			Msg("action")
	}

	if result.Err != nil {
		return
	}
	o.tracker.Observe(a)
	if !cfg.Unused {
		return
	}

	if len(result.Matched) == 0 {
		o.logger.Warn().
			Str("dispatch_id", info.ID).
			Str("type", a.Type).
			Str("source", a.Source).
			Msg("action was not handled by any store")
	}
	o.reportUnused(cfg)
}

// reportUnused logs bound identifiers that never matched, once.
func (o *Observer) reportUnused(cfg Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.reported {
		return
	}
	unused := o.tracker.Unused(cfg.UnusedTimeout)
	if unused == nil {
		return
	}
	o.reported = true
	for store, ids := range unused {
		o.logger.Warn().
			Str("store", store).
			Strs("identifiers", ids).
			Dur("after", cfg.UnusedTimeout).
			Msg("bound identifiers never matched an action")
	}
}

func (o *Observer) name(tok dispatcher.Token) string {
	if o.names == nil {
		return string(tok)
	}
	return o.names.Name(tok)
}
