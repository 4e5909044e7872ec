package immutable

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Freeze
// =============================================================================

func TestFreeze_PrimitivesPassThrough(t *testing.T) {
	type status string

	for _, v := range []any{5, int64(-3), uint8(7), 1.5, true, "abc", status("open")} {
		got, err := Freeze(v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFreeze_NilBecomesNull(t *testing.T) {
	got, err := Freeze(nil)
	require.NoError(t, err)
	assert.Equal(t, Null{}, got)
}

func TestFreeze_NestedStructures(t *testing.T) {
	src := map[string]any{
		"name": "cart",
		"tags": []string{"a", "b"},
		"items": []any{
			map[string]any{"id": 1, "qty": 2},
		},
	}

	got, err := Freeze(src)
	require.NoError(t, err)

	m, ok := got.(Map)
	require.True(t, ok, "expected Map, got %T", got)
	assert.Equal(t, []string{"items", "name", "tags"}, m.Keys())

	tags, _ := m.Get("tags")
	require.IsType(t, List{}, tags)
	assert.Equal(t, 2, tags.(List).Len())

	items, _ := m.Get("items")
	first := items.(List).At(0)
	require.IsType(t, Map{}, first)
	qty, ok := first.(Map).Get("qty")
	require.True(t, ok)
	assert.Equal(t, 2, qty)
}

func TestFreeze_DetachesFromSource(t *testing.T) {
	src := map[string]any{"count": 1}
	frozen, err := Freeze(src)
	require.NoError(t, err)

	src["count"] = 2
	src["extra"] = true

	v, _ := frozen.(Map).Get("count")
	assert.Equal(t, 1, v)
	assert.False(t, frozen.(Map).Has("extra"))
}

func TestFreeze_Idempotent(t *testing.T) {
	first, err := Freeze([]any{1, map[string]any{"a": "b"}})
	require.NoError(t, err)

	second, err := Freeze(first)
	require.NoError(t, err)
	assert.True(t, Equal(first, second))
	assert.IsType(t, List{}, second)
}

func TestFreeze_Unfreezable(t *testing.T) {
	type point struct{ X, Y int }
	x := 3

	cases := map[string]any{
		"func":        func() {},
		"chan":        make(chan int),
		"pointer":     &x,
		"struct":      point{1, 2},
		"int-key map": map[int]string{1: "a"},
		"nested func": map[string]any{"cb": []any{func() {}}},
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Freeze(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnfreezable)
		})
	}
}

func TestFreeze_ReportsPath(t *testing.T) {
	_, err := Freeze(map[string]any{"items": []any{1, func() {}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.items[1]")
}

func TestFreeze_NFCKeyCollision(t *testing.T) {
	src := map[string]any{"\u00e9": 1, "e\u0301": 2}

	for range 20 {
		_, err := Freeze(src)
		require.ErrorIs(t, err, ErrUnfreezable)
		assert.Contains(t, err.Error(), "collide")
	}

	_, err := NewMap(map[string]any{"nested": map[string]any{"\u00e9": 1, "e\u0301": 2}})
	assert.ErrorIs(t, err, ErrUnfreezable)
}

func TestFreeze_SelfReferenceFails(t *testing.T) {
	m := map[string]any{}
	m["self"] = m

	_, err := Freeze(m)
	assert.ErrorIs(t, err, ErrUnfreezable)
}

func TestFreeze_RegisteredTypesNotTraversed(t *testing.T) {
	type money struct {
		Cents    int64
		Currency string
	}

	r := NewRegistry()
	_, err := r.Freeze(money{100, "EUR"})
	require.ErrorIs(t, err, ErrUnfreezable)

	r.Register(reflect.TypeFor[money]())
	got, err := r.Freeze(money{100, "EUR"})
	require.NoError(t, err)
	assert.Equal(t, money{100, "EUR"}, got)
	assert.True(t, r.IsImmutable(got))
}

func TestFreeze_TimeRecognizedByDefault(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := Freeze(map[string]any{"at": now})
	require.NoError(t, err)

	at, _ := got.(Map).Get("at")
	assert.Equal(t, now, at)
}

// =============================================================================
// IsImmutable
// =============================================================================

func TestIsImmutable(t *testing.T) {
	type label string

	frozen, err := Freeze(map[string]any{"a": 1})
	require.NoError(t, err)

	immutableVals := []any{nil, Null{}, 1, "x", false, 2.5, label("l"), List{}, Map{}, frozen}
	for _, v := range immutableVals {
		assert.True(t, IsImmutable(v), "expected %T to be immutable", v)
	}

	mutableVals := []any{
		map[string]any{"a": 1},
		[]any{1},
		[]byte("abc"),
		&struct{}{},
		struct{ A int }{1},
		func() {},
	}
	for _, v := range mutableVals {
		assert.False(t, IsImmutable(v), "expected %T to be mutable", v)
	}
}

func TestIsImmutable_DoesNotModify(t *testing.T) {
	src := map[string]any{"a": []any{1}}
	assert.False(t, IsImmutable(src))
	assert.Equal(t, map[string]any{"a": []any{1}}, src)
}
