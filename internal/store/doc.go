// Package store provides object-oriented flux stores.
//
// A store is described by a Config with three parts:
//
//	Init     runs once against the private Context; sets initial fields
//	         and calls BindActions
//	Private  methods that may mutate fields; only reachable through Context
//	Public   read-only accessors; the only thing external code can call
//
// External callers hold a *Store and reach state only through Store.Call,
// whose return values must pass immutable.IsImmutable. Returning a plain map
// or slice from a public method fails with ErrMutableLeak, even if the
// underlying field was freshly built for the call.
//
// # Action binding
//
// Context.BindActions takes (identifier, handler) pairs. An identifier is
// matched against both Action.Type and Action.Source. The first call
// registers a single store-level callback with the dispatcher, so other
// stores depend on this one through Store.DispatchToken, never on individual
// handlers. The binding table is sealed when Init returns.
//
// # Change notification
//
// After a dispatch in which any of the store's handlers ran, subscribers are
// notified once. Notifications are deferred until the dispatch has completed,
// so a subscriber reading several stores sees all of them updated.
//
// # Testing
//
// Store.Mock returns a facade that drives an action straight through the
// store's own handlers without the dispatcher, and that resets the store to
// its freshly constructed state.
//
// Stores share the dispatcher's threading model: one goroutine dispatches and
// reads at a time.
package store
