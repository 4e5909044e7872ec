package todo

import (
	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/store"
)

// NewStatsStore creates a store that derives counts from todos. Its handler
// waits for todos before reading it, so the counts always reflect the action
// being dispatched.
func NewStatsStore(d *dispatcher.Dispatcher, todos *store.Store) (*store.Store, error) {
	return store.New(d, store.Config{
		DisplayName: "StatsStore",
		Init: func(ctx *store.Context) error {
			ctx.Set("total", 0)
			ctx.Set("completed", 0)
			return ctx.BindActions(
				ActionAdd, "recount",
				ActionToggle, "recount",
				ActionClearCompleted, "recount",
			)
		},
		Public: map[string]store.Method{
			"stats": func(ctx *store.Context, _ ...any) (any, error) {
				total := ctx.Get("total").(int)
				completed := ctx.Get("completed").(int)
				return immutable.NewMap(map[string]any{
					"total":     total,
					"completed": completed,
					"remaining": total - completed,
				})
			},
		},
		Private: map[string]store.Method{
			"recount": func(ctx *store.Context, _ ...any) (any, error) {
				if err := ctx.WaitFor(todos.DispatchToken()); err != nil {
					return nil, err
				}
				v, err := todos.Call("all")
				if err != nil {
					return nil, err
				}
				list := v.(immutable.List)
				completed := 0
				for _, item := range list.All() {
					if isDone(item) {
						completed++
					}
				}
				ctx.Set("total", list.Len())
				ctx.Set("completed", completed)
				return nil, nil
			},
		},
	})
}
