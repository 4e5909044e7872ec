package todo

import (
	"errors"
	"fmt"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/store"
)

// ErrUnknownTodo is returned when an action names a todo that does not exist.
var ErrUnknownTodo = errors.New("unknown todo")

// NewTodoStore creates the store that owns the todo list.
//
// Each todo is an immutable.Map {id, title, done}. IDs are "t1", "t2", ...
// in creation order and are never reused, even after clearCompleted.
func NewTodoStore(d *dispatcher.Dispatcher) (*store.Store, error) {
	return store.New(d, store.Config{
		DisplayName: "TodoStore",
		Init: func(ctx *store.Context) error {
			ctx.Set("todos", immutable.List{})
			ctx.Set("nextID", 1)
			return ctx.BindActions(
				ActionAdd, "add",
				ActionToggle, "toggle",
				ActionClearCompleted, "clearCompleted",
			)
		},
		Public: map[string]store.Method{
			"all": func(ctx *store.Context, _ ...any) (any, error) {
				return todos(ctx), nil
			},
			"count": func(ctx *store.Context, _ ...any) (any, error) {
				return todos(ctx).Len(), nil
			},
			"get": func(ctx *store.Context, args ...any) (any, error) {
				if len(args) != 1 {
					return nil, fmt.Errorf("get: want 1 argument, got %d", len(args))
				}
				id, ok := args[0].(string)
				if !ok {
					return nil, fmt.Errorf("get: id must be a string, got %T", args[0])
				}
				if i := indexOf(todos(ctx), id); i >= 0 {
					return todos(ctx).At(i), nil
				}
				return immutable.Null{}, nil
			},
		},
		Private: map[string]store.Method{
			"add":            addTodo,
			"toggle":         toggleTodo,
			"clearCompleted": clearCompleted,
		},
	})
}

func todos(ctx *store.Context) immutable.List {
	return ctx.Get("todos").(immutable.List)
}

func addTodo(ctx *store.Context, args ...any) (any, error) {
	title, err := payloadString(args, "title")
	if err != nil {
		return nil, err
	}
	n := ctx.Get("nextID").(int)
	item, err := immutable.NewMap(map[string]any{
		"id":    fmt.Sprintf("t%d", n),
		"title": title,
		"done":  false,
	})
	if err != nil {
		return nil, err
	}
	list, err := todos(ctx).Append(item)
	if err != nil {
		return nil, err
	}
	ctx.Set("todos", list)
	ctx.Set("nextID", n+1)
	return nil, nil
}

func toggleTodo(ctx *store.Context, args ...any) (any, error) {
	id, err := payloadString(args, "id")
	if err != nil {
		return nil, err
	}
	list := todos(ctx)
	i := indexOf(list, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTodo, id)
	}
	item := list.At(i).(immutable.Map)
	done, _ := item.Get("done")
	updated, err := item.With("done", !done.(bool))
	if err != nil {
		return nil, err
	}
	list, err = list.Set(i, updated)
	if err != nil {
		return nil, err
	}
	ctx.Set("todos", list)
	return nil, nil
}

func clearCompleted(ctx *store.Context, _ ...any) (any, error) {
	ctx.Set("todos", todos(ctx).Filter(func(v any) bool {
		return !isDone(v)
	}))
	return nil, nil
}

func indexOf(list immutable.List, id string) int {
	for i, v := range list.All() {
		if got, _ := v.(immutable.Map).Get("id"); got == id {
			return i
		}
	}
	return -1
}

func isDone(v any) bool {
	done, _ := v.(immutable.Map).Get("done")
	b, _ := done.(bool)
	return b
}

// payloadString reads a string field from the frozen payload passed to a
// private handler.
func payloadString(args []any, field string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("missing payload")
	}
	m, ok := args[0].(immutable.Map)
	if !ok {
		return "", fmt.Errorf("payload must be a map, got %T", args[0])
	}
	v, ok := m.Get(field)
	if !ok {
		return "", fmt.Errorf("payload: %s is required", field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("payload: %s must be a string, got %T", field, v)
	}
	return s, nil
}
