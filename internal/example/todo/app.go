package todo

import (
	"context"
	"fmt"

	"github.com/roach88/strictflux/internal/actions"
	"github.com/roach88/strictflux/internal/debug"
	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/journal"
	"github.com/roach88/strictflux/internal/store"
)

// App wires the todo stores and creators to one dispatcher.
type App struct {
	dispatcher *dispatcher.Dispatcher
	todos      *store.Store
	stats      *store.Store
	creators   *actions.Creators
	tracker    *debug.Tracker
	journal    *journal.Observer
}

type options struct {
	dispatcherOpts []dispatcher.Option
	journal        *journal.Journal
	journalCtx     context.Context
}

// Option configures New.
type Option func(*options)

// WithDispatcherOptions passes extra options to dispatcher.New.
func WithDispatcherOptions(opts ...dispatcher.Option) Option {
	return func(o *options) {
		o.dispatcherOpts = append(o.dispatcherOpts, opts...)
	}
}

// WithJournal records every dispatch in j.
func WithJournal(ctx context.Context, j *journal.Journal) Option {
	return func(o *options) {
		o.journal = j
		o.journalCtx = ctx
	}
}

// tokenNames resolves tokens through the dispatcher once it exists. Observers
// are created before the dispatcher they observe.
type tokenNames struct {
	d *dispatcher.Dispatcher
}

func (n *tokenNames) Name(tok dispatcher.Token) string {
	if n.d == nil {
		return ""
	}
	return n.d.Name(tok)
}

// New builds the application.
func New(opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	decls, err := Declarations()
	if err != nil {
		return nil, err
	}
	creatorDecl, ok := decls.Creator("TodoActions")
	if !ok {
		return nil, fmt.Errorf("todo.cue: TodoActions is not declared")
	}

	app := &App{}
	names := &tokenNames{}
	debugObs := debug.NewObserver(names)
	app.tracker = debugObs.Tracker()

	dopts := []dispatcher.Option{dispatcher.WithObserver(debugObs)}
	if o.journal != nil {
		ctx := o.journalCtx
		if ctx == nil {
			ctx = context.Background()
		}
		app.journal = journal.NewObserver(ctx, o.journal, names)
		dopts = append(dopts, dispatcher.WithObserver(app.journal))
	}
	dopts = append(dopts, o.dispatcherOpts...)

	app.dispatcher = dispatcher.New(dopts...)
	names.d = app.dispatcher

	if app.todos, err = NewTodoStore(app.dispatcher); err != nil {
		return nil, err
	}
	if app.stats, err = NewStatsStore(app.dispatcher, app.todos); err != nil {
		return nil, err
	}
	if app.creators, err = actions.New(app.dispatcher, creatorDecl.Config()); err != nil {
		return nil, err
	}
	app.tracker.TrackStores(app.todos, app.stats)
	return app, nil
}

// Dispatcher returns the application's dispatcher.
func (a *App) Dispatcher() *dispatcher.Dispatcher { return a.dispatcher }

// Todos returns the TodoStore.
func (a *App) Todos() *store.Store { return a.todos }

// Stats returns the StatsStore.
func (a *App) Stats() *store.Store { return a.stats }

// Actions returns the TodoActions creators.
func (a *App) Actions() *actions.Creators { return a.creators }

// Tracker returns the unused-binding tracker fed by the debug observer.
func (a *App) Tracker() *debug.Tracker { return a.tracker }

// Store returns the store with the given display name.
func (a *App) Store(name string) (*store.Store, bool) {
	for _, s := range []*store.Store{a.todos, a.stats} {
		if s.DisplayName() == name {
			return s, true
		}
	}
	return nil, false
}

// Creator returns the creator set with the given display name.
func (a *App) Creator(name string) (*actions.Creators, bool) {
	if a.creators.DisplayName() == name {
		return a.creators, true
	}
	return nil, false
}

// ErrorCodes maps the application's errors to scenario error codes.
func (a *App) ErrorCodes() map[string]error {
	return map[string]error{"UNKNOWN_TODO": ErrUnknownTodo}
}

// JournalFailures returns the number of dispatches the journal failed to
// record, or 0 without a journal.
func (a *App) JournalFailures() int {
	if a.journal == nil {
		return 0
	}
	return a.journal.Failed()
}
