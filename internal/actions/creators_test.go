package actions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
)

// fakeDispatcher records dispatched actions.
type fakeDispatcher struct {
	actions []dispatcher.Action
	err     error
}

func (f *fakeDispatcher) Dispatch(a dispatcher.Action) error {
	f.actions = append(f.actions, a)
	return f.err
}

func todoConfig() CreatorConfig {
	return CreatorConfig{
		DisplayName:  "TodoActions",
		ActionSource: "VIEW_ACTION",
		Methods: map[string]MethodSpec{
			"add":   {ActionType: "TODO_ADD", PayloadType: `close({title: string & != "", priority?: int & >=0})`},
			"clear": {ActionType: "TODO_CLEAR"},
			"toggle": {
				ActionType:  "TODO_TOGGLE",
				PayloadType: `{id: string, done: bool}`,
				CreatePayload: func(args ...any) (any, error) {
					return map[string]any{"id": args[0], "done": args[1]}, nil
				},
			},
		},
	}
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreatorConfig)
	}{
		{"no source", func(c *CreatorConfig) { c.ActionSource = "" }},
		{"no methods", func(c *CreatorConfig) { c.Methods = nil }},
		{"empty type", func(c *CreatorConfig) { c.Methods["bad"] = MethodSpec{} }},
		{"bad schema", func(c *CreatorConfig) { c.Methods["bad"] = MethodSpec{ActionType: "X", PayloadType: "{a: "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := todoConfig()
			tt.mutate(&cfg)
			_, err := New(&fakeDispatcher{}, cfg)
			assert.ErrorIs(t, err, ErrInvalidCreatorConfiguration)
		})
	}

	_, err := New(nil, todoConfig())
	assert.ErrorIs(t, err, ErrInvalidCreatorConfiguration)
}

func TestCall_DispatchesWithSource(t *testing.T) {
	fd := &fakeDispatcher{}
	c, err := New(fd, todoConfig())
	require.NoError(t, err)

	require.NoError(t, c.Call("add", map[string]any{"title": "milk"}))
	require.NoError(t, c.Call("clear"))

	require.Len(t, fd.actions, 2)
	assert.Equal(t, "TODO_ADD", fd.actions[0].Type)
	assert.Equal(t, "VIEW_ACTION", fd.actions[0].Source)
	m, ok := fd.actions[0].Payload.(immutable.Map)
	require.True(t, ok, "payload is frozen")
	title, _ := m.Get("title")
	assert.Equal(t, "milk", title)

	assert.Equal(t, "TODO_CLEAR", fd.actions[1].Type)
	assert.Equal(t, immutable.Null{}, fd.actions[1].Payload)
}

func TestCall_CreatePayload(t *testing.T) {
	fd := &fakeDispatcher{}
	c, err := New(fd, todoConfig())
	require.NoError(t, err)

	require.NoError(t, c.Call("toggle", "t1", true))
	m := fd.actions[0].Payload.(immutable.Map)
	done, _ := m.Get("done")
	assert.Equal(t, true, done)
}

func TestCall_RejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name   string
		method string
		args   []any
	}{
		{"missing field", "add", []any{map[string]any{}}},
		{"empty title", "add", []any{map[string]any{"title": ""}}},
		{"wrong type", "add", []any{map[string]any{"title": 3}}},
		{"closed struct", "add", []any{map[string]any{"title": "x", "extra": 1}}},
		{"negative priority", "add", []any{map[string]any{"title": "x", "priority": -1}}},
		{"nil for schema", "add", nil},
		{"payload without type", "clear", []any{"surprise"}},
		{"unfreezable", "add", []any{map[string]any{"title": func() {}}}},
		{"too many args", "add", []any{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := &fakeDispatcher{}
			c, err := New(fd, todoConfig())
			require.NoError(t, err)

			err = c.Call(tt.method, tt.args...)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.Empty(t, fd.actions, "nothing is dispatched")
		})
	}
}

func TestCall_AcceptsOptionalField(t *testing.T) {
	fd := &fakeDispatcher{}
	c, err := New(fd, todoConfig())
	require.NoError(t, err)

	require.NoError(t, c.Call("add", map[string]any{"title": "x", "priority": 2}))
}

func TestCall_UnknownMethod(t *testing.T) {
	c, err := New(&fakeDispatcher{}, todoConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Call("nope"), ErrUnknownMethod)
	assert.False(t, c.Has("nope"))
	assert.True(t, c.Has("add"))
}

func TestCall_PropagatesDispatchError(t *testing.T) {
	boom := errors.New("boom")
	c, err := New(&fakeDispatcher{err: boom}, todoConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Call("clear"), boom)
}

func TestCall_ThroughDispatcher(t *testing.T) {
	d := dispatcher.New()
	var got dispatcher.Action
	d.Register(func(_ *dispatcher.Context, a dispatcher.Action) error {
		got = a
		return nil
	})

	c, err := New(d, todoConfig())
	require.NoError(t, err)
	require.NoError(t, c.Call("toggle", "t1", false))
	assert.Equal(t, "TODO_TOGGLE", got.Type)
	assert.Equal(t, "VIEW_ACTION", got.Source)
}

func TestMethods(t *testing.T) {
	c, err := New(&fakeDispatcher{}, todoConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "clear", "toggle"}, c.Methods())
	assert.Equal(t, "TodoActions", c.DisplayName())
	assert.Equal(t, "VIEW_ACTION", c.Source())
}
