package store

import (
	"fmt"
	"reflect"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/strictflux/internal/dispatcher"
)

// BoundHandler is a private method bound to one store's context.
// Create it with Context.Handler.
type BoundHandler struct {
	owner *Context
	name  string
}

type boundHandler struct {
	name string
	fn   Handler
}

// bindingTable maps action identifiers (type or source) to handlers in the
// order they were bound.
type bindingTable struct {
	handlers map[string][]boundHandler
	order    []string
}

func newBindingTable() *bindingTable {
	return &bindingTable{handlers: make(map[string][]boundHandler)}
}

func (t *bindingTable) add(id string, h boundHandler) {
	if _, ok := t.handlers[id]; !ok {
		t.order = append(t.order, id)
	}
	t.handlers[id] = append(t.handlers[id], h)
}

// match returns handlers bound to the action's type followed by those bound
// to its source.
func (t *bindingTable) match(a dispatcher.Action) []boundHandler {
	typ := normalizeIdentifier(a.Type)
	src := normalizeIdentifier(a.Source)

	out := t.handlers[typ]
	if src != "" && src != typ {
		out = append(out[:len(out):len(out)], t.handlers[src]...)
	}
	return out
}

// identifiers returns the bound identifiers in binding order.
func (t *bindingTable) identifiers() []string {
	return append([]string(nil), t.order...)
}

// BindActions binds action identifiers to handlers. Arguments alternate
// (identifier, handler):
//
//	ctx.BindActions(
//		"TODO_CREATE", "addTodo",
//		"TODO_TOGGLE", ctx.Handler("toggle"),
//		"SERVER", store.Handler(func(ctx *store.Context, p any) error { ... }),
//	)
//
// An identifier is any non-empty string (or named string type) and matches
// both Action.Type and Action.Source. A handler is a private method name, a
// *BoundHandler from this context, or a Handler func.
//
// Arguments are validated before anything is bound, so a failed call leaves
// the table unchanged. The first call registers the store with the dispatcher.
func (c *Context) BindActions(pairs ...any) error {
	if c.sealed {
		return fmt.Errorf("%w: %s", ErrBindingsSealed, c.store.name)
	}
	if len(pairs)%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrUnevenBindingArgs, len(pairs))
	}

	type binding struct {
		id string
		h  boundHandler
	}
	bindings := make([]binding, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		id, err := actionIdentifier(pairs[i])
		if err != nil {
			return fmt.Errorf("%s: argument %d: %w", c.store.name, i, err)
		}
		h, err := c.resolveHandler(pairs[i+1])
		if err != nil {
			return fmt.Errorf("%s: argument %d (%s): %w", c.store.name, i+1, id, err)
		}
		bindings = append(bindings, binding{id: id, h: h})
	}

	c.store.ensureRegistered()
	for _, b := range bindings {
		c.bindings.add(b.id, b.h)
		c.store.logger.Debug().Str("identifier", b.id).Str("handler", b.h.name).Msg("action bound")
	}
	return nil
}

func actionIdentifier(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: nil", ErrInvalidActionIdentifier)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", fmt.Errorf("%w: %T is not a string", ErrInvalidActionIdentifier, v)
	}
	id := normalizeIdentifier(rv.String())
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidActionIdentifier)
	}
	return id, nil
}

func normalizeIdentifier(s string) string {
	return norm.NFC.String(s)
}

func (c *Context) resolveHandler(v any) (boundHandler, error) {
	switch h := v.(type) {
	case string:
		return c.privateHandler(h)
	case *BoundHandler:
		if h == nil {
			return boundHandler{}, fmt.Errorf("%w: nil", ErrInvalidHandler)
		}
		if h.owner.store != c.store {
			return boundHandler{}, fmt.Errorf("%w: %q is bound to %s", ErrInvalidHandler, h.name, h.owner.store.name)
		}
		return c.privateHandler(h.name)
	case Handler:
		if h == nil {
			return boundHandler{}, fmt.Errorf("%w: nil", ErrInvalidHandler)
		}
		return boundHandler{name: "<func>", fn: h}, nil
	case func(*Context, any) error:
		if h == nil {
			return boundHandler{}, fmt.Errorf("%w: nil", ErrInvalidHandler)
		}
		return boundHandler{name: "<func>", fn: h}, nil
	case nil:
		return boundHandler{}, fmt.Errorf("%w: nil", ErrInvalidHandler)
	default:
		return boundHandler{}, fmt.Errorf("%w: %T is not callable", ErrInvalidHandler, v)
	}
}

func (c *Context) privateHandler(name string) (boundHandler, error) {
	m, ok := c.store.cfg.Private[name]
	if !ok {
		return boundHandler{}, fmt.Errorf("%w: no private method %q", ErrInvalidHandler, name)
	}
	return boundHandler{
		name: name,
		fn: func(ctx *Context, payload any) error {
			_, err := m(ctx, payload)
			return err
		},
	}, nil
}
