package view

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/store"
)

// counter is a component showing one store value.
type counter struct {
	s      *store.Store
	states []any
}

func (c *counter) GetStateFromStores() any {
	v, err := c.s.Call("get")
	if err != nil {
		return err
	}
	return v
}

func (c *counter) SetState(state any) { c.states = append(c.states, state) }

func newCounterStore(t *testing.T, d *dispatcher.Dispatcher) *store.Store {
	t.Helper()
	s, err := store.New(d, store.Config{
		DisplayName: "CounterStore",
		Init: func(ctx *store.Context) error {
			ctx.Set("n", 0)
			return ctx.BindActions("INC", "inc")
		},
		Private: map[string]store.Method{
			"inc": func(ctx *store.Context, _ ...any) (any, error) {
				ctx.Set("n", ctx.Get("n").(int)+1)
				return nil, nil
			},
		},
		Public: map[string]store.Method{
			"get": func(ctx *store.Context, _ ...any) (any, error) { return ctx.Get("n"), nil },
		},
	})
	require.NoError(t, err)
	return s
}

func TestBind_InitialAndUpdates(t *testing.T) {
	d := dispatcher.New(dispatcher.WithLogger(zerolog.Nop()))
	s := newCounterStore(t, d)
	c := &counter{s: s}

	unbind := Bind(c, s)
	assert.Equal(t, []any{0}, c.states)

	require.NoError(t, d.Dispatch(dispatcher.Action{Type: "INC"}))
	require.NoError(t, d.Dispatch(dispatcher.Action{Type: "OTHER"}))
	assert.Equal(t, []any{0, 1}, c.states)

	unbind()
	unbind()
	require.NoError(t, d.Dispatch(dispatcher.Action{Type: "INC"}))
	assert.Equal(t, []any{0, 1}, c.states)
}

func TestBind_MultipleStores(t *testing.T) {
	d := dispatcher.New(dispatcher.WithLogger(zerolog.Nop()))
	a := newCounterStore(t, d)
	b := newCounterStore(t, d)
	c := &counter{s: a}

	Bind(c, a, b)
	require.NoError(t, d.Dispatch(dispatcher.Action{Type: "INC"}))

	// One refresh per store, both after the dispatch completed.
	assert.Equal(t, []any{0, 1, 1}, c.states)
}

func TestBind_NoStores(t *testing.T) {
	c := &staticComponent{}
	unbind := Bind(c)
	unbind()
	assert.Equal(t, 1, c.sets)
}

type staticComponent struct{ sets int }

func (s *staticComponent) GetStateFromStores() any { return "static" }
func (s *staticComponent) SetState(any) { s.sets++ }
