package todo

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strictflux/internal/actions"
	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/journal"
	"github.com/roach88/strictflux/internal/store"
)

func newApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	app, err := New(opts...)
	require.NoError(t, err)
	return app
}

func stats(t *testing.T, s *store.Store) map[string]any {
	t.Helper()
	v, err := s.Call("stats")
	require.NoError(t, err)
	return immutable.Thaw(v).(map[string]any)
}

func TestDeclarations(t *testing.T) {
	decls, err := Declarations()
	require.NoError(t, err)

	c, ok := decls.Creator("TodoActions")
	require.True(t, ok)
	assert.Equal(t, SourceView, c.Source)
	assert.Len(t, c.Methods, 3)
	assert.Len(t, decls.Stores, 2)
}

func TestApp_AddToggleClear(t *testing.T) {
	app := newApp(t)
	todos := app.Actions()

	require.NoError(t, todos.Call("add", map[string]any{"title": "milk"}))
	require.NoError(t, todos.Call("add", map[string]any{"title": "eggs"}))
	require.NoError(t, todos.Call("toggle", map[string]any{"id": "t1"}))

	assert.Equal(t, map[string]any{"total": 2, "completed": 1, "remaining": 1}, stats(t, app.Stats()))

	first, err := app.Todos().Call("get", "t1")
	require.NoError(t, err)
	done, _ := first.(immutable.Map).Get("done")
	assert.Equal(t, true, done)

	require.NoError(t, todos.Call("clearCompleted"))

	count, err := app.Todos().Call("count")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	gone, err := app.Todos().Call("get", "t1")
	require.NoError(t, err)
	assert.Equal(t, immutable.Null{}, gone)
	assert.Equal(t, map[string]any{"total": 1, "completed": 0, "remaining": 1}, stats(t, app.Stats()))
}

func TestApp_IDsAreNotReused(t *testing.T) {
	app := newApp(t)
	require.NoError(t, app.Actions().Call("add", map[string]any{"title": "a"}))
	require.NoError(t, app.Actions().Call("toggle", map[string]any{"id": "t1"}))
	require.NoError(t, app.Actions().Call("clearCompleted"))
	require.NoError(t, app.Actions().Call("add", map[string]any{"title": "b"}))

	v, err := app.Todos().Call("all")
	require.NoError(t, err)
	list := immutable.Thaw(v).([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "t2", list[0].(map[string]any)["id"])
}

func TestApp_RejectsInvalidPayload(t *testing.T) {
	app := newApp(t)

	err := app.Actions().Call("add", map[string]any{"title": ""})
	assert.ErrorIs(t, err, actions.ErrInvalidPayload)

	count, err := app.Todos().Call("count")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestApp_ToggleUnknownTodo(t *testing.T) {
	app := newApp(t)

	err := app.Actions().Call("toggle", map[string]any{"id": "t9"})
	assert.ErrorIs(t, err, ErrUnknownTodo)
	assert.Equal(t, map[string]any{"total": 0, "completed": 0, "remaining": 0}, stats(t, app.Stats()))
}

func TestApp_Lookup(t *testing.T) {
	app := newApp(t)

	s, ok := app.Store("StatsStore")
	require.True(t, ok)
	assert.Same(t, app.Stats(), s)
	_, ok = app.Store("Nope")
	assert.False(t, ok)

	c, ok := app.Creator("TodoActions")
	require.True(t, ok)
	assert.Same(t, app.Actions(), c)
	_, ok = app.Creator("Nope")
	assert.False(t, ok)

	assert.Contains(t, app.ErrorCodes(), "UNKNOWN_TODO")
}

func TestApp_TracksBindings(t *testing.T) {
	app := newApp(t)
	require.NoError(t, app.Actions().Call("add", map[string]any{"title": "a"}))

	unused := app.Tracker().Unused(0)
	got := slices.Clone(unused["TodoStore"])
	slices.Sort(got)
	assert.Equal(t, []string{ActionClearCompleted, ActionToggle}, got)
}

func TestApp_Journal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer j.Close()

	ids := dispatcher.NewFixedGenerator("d1", "d2")
	app := newApp(t,
		WithJournal(context.Background(), j),
		WithDispatcherOptions(dispatcher.WithIDGenerator(ids)),
	)

	require.NoError(t, app.Actions().Call("add", map[string]any{"title": "milk"}))
	require.Error(t, app.Actions().Call("toggle", map[string]any{"id": "t7"}))
	assert.Zero(t, app.JournalFailures())

	entries, err := j.List(context.Background(), journal.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "d1", entries[0].DispatchID)
	assert.Equal(t, ActionAdd, entries[0].Type)
	assert.Equal(t, SourceView, entries[0].Source)
	assert.JSONEq(t, `{"title":"milk"}`, entries[0].PayloadJSON)
	assert.ElementsMatch(t, []string{"TodoStore", "StatsStore"}, entries[0].Stores)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, "d2", entries[1].DispatchID)
	assert.Contains(t, entries[1].Error, "unknown todo")
}

func TestStatsStore_MockSkipsWaitFor(t *testing.T) {
	app := newApp(t)
	require.NoError(t, app.Actions().Call("add", map[string]any{"title": "a"}))

	m := app.Stats().Mock()
	require.NoError(t, m.Reset())
	assert.Equal(t, map[string]any{"total": 0, "completed": 0, "remaining": 0}, stats(t, app.Stats()))

	require.NoError(t, m.Dispatch(dispatcher.Action{Type: ActionAdd}))
	assert.Equal(t, map[string]any{"total": 1, "completed": 0, "remaining": 1}, stats(t, app.Stats()))
}
