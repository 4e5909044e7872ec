package store

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/strictflux/internal/dispatcher"
)

// Context is a store's private execution context. Init, private methods,
// public methods and handlers all receive it; external code never does.
//
// It carries the capability set of a store: fields, private and public
// methods, BindActions and WaitFor.
type Context struct {
	store *Store

	mu     sync.RWMutex // guards fields
	fields map[string]any

	bindings *bindingTable
	sealed   bool

	// dispatch is set while the store's callback runs inside a real dispatch.
	dispatch *dispatcher.Context
}

func newContext(s *Store) *Context {
	return &Context{
		store:    s,
		fields:   make(map[string]any),
		bindings: newBindingTable(),
	}
}

// DisplayName returns the owning store's name.
func (c *Context) DisplayName() string { return c.store.name }

// Get returns the field value, or nil if unset.
func (c *Context) Get(name string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fields[name]
}

// Lookup returns the field value and whether it is set.
func (c *Context) Lookup(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.fields[name]
	return v, ok
}

// Set assigns a field. Private fields accept any value; only values leaving
// through a public method are checked for immutability.
func (c *Context) Set(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[name] = v
}

// Delete removes a field.
func (c *Context) Delete(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fields, name)
}

// Fields returns the names of the set fields, sorted.
func (c *Context) Fields() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.fields))
}

// Call invokes a private method.
func (c *Context) Call(name string, args ...any) (any, error) {
	m, ok := c.store.cfg.Private[name]
	if !ok {
		return nil, fmt.Errorf("%w: private %s.%s", ErrUnknownMethod, c.store.name, name)
	}
	return m(c, args...)
}

// Public invokes a public method from inside the store. The immutability check
// applies only at the external boundary (Store.Call), not here.
func (c *Context) Public(name string, args ...any) (any, error) {
	m, ok := c.store.cfg.Public[name]
	if !ok {
		return nil, fmt.Errorf("%w: public %s.%s", ErrUnknownMethod, c.store.name, name)
	}
	return m(c, args...)
}

// Handler returns a handle to a private method bound to this context, for use
// with BindActions.
func (c *Context) Handler(name string) *BoundHandler {
	return &BoundHandler{owner: c, name: name}
}

// WaitFor blocks this store's handler until the stores owning tokens have
// processed the current action. Outside a real dispatch (Mock.Dispatch, or
// Init) it is a no-op.
func (c *Context) WaitFor(tokens ...dispatcher.Token) error {
	if c.dispatch == nil {
		return nil
	}
	return c.dispatch.WaitFor(tokens...)
}

// Action returns the action being handled and true, or false when no real
// dispatch is in progress.
func (c *Context) Action() (dispatcher.Action, bool) {
	if c.dispatch == nil {
		return dispatcher.Action{}, false
	}
	return c.dispatch.Action(), true
}
