package immutable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_PersistentUpdates(t *testing.T) {
	base := MustList(1, 2)

	appended, err := base.Append(3)
	require.NoError(t, err)
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, []any{1, 2, 3}, appended.Values())

	replaced, err := appended.Set(0, "one")
	require.NoError(t, err)
	assert.Equal(t, 1, appended.At(0))
	assert.Equal(t, "one", replaced.At(0))

	_, err = base.Set(5, 0)
	assert.Error(t, err)
}

func TestList_ValuesIsACopy(t *testing.T) {
	l := MustList(1, 2)
	vals := l.Values()
	vals[0] = 99
	assert.Equal(t, 1, l.At(0))
}

func TestList_AppendRejectsMutableFunc(t *testing.T) {
	_, err := MustList().Append(func() {})
	assert.ErrorIs(t, err, ErrUnfreezable)
}

func TestList_Filter(t *testing.T) {
	l := MustList(1, 2, 3, 4)
	even := l.Filter(func(v any) bool { return v.(int)%2 == 0 })
	assert.Equal(t, []any{2, 4}, even.Values())
	assert.Equal(t, 4, l.Len())
}

func TestMap_PersistentUpdates(t *testing.T) {
	base := MustMap(map[string]any{"a": 1})

	with, err := base.With("b", []any{"x"})
	require.NoError(t, err)
	assert.False(t, base.Has("b"))
	b, _ := with.Get("b")
	assert.IsType(t, List{}, b)

	without := with.Without("a")
	assert.True(t, with.Has("a"))
	assert.False(t, without.Has("a"))
	assert.Equal(t, 1, without.Len())
}

func TestMap_KeysUseUTF16Order(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...) and sorts before U+FB01
	// in UTF-16 order, but after it in UTF-8 byte order.
	m := MustMap(map[string]any{"ﬁ": 1, "\U00010000": 2, "a": 3})
	assert.Equal(t, []string{"a", "\U00010000", "ﬁ"}, m.Keys())
}

func TestMap_NFCNormalizedKeys(t *testing.T) {
	m := MustMap(map[string]any{"e\u0301": 1})

	v, ok := m.Get("\u00e9")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"\u00e9"}, m.Keys())
}

func TestEqual(t *testing.T) {
	a := MustMap(map[string]any{"x": []any{1, "two"}})
	b := MustMap(map[string]any{"x": []any{1, "two"}})
	c := MustMap(map[string]any{"x": []any{1, "three"}})

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.True(t, Equal(nil, Null{}))
	assert.False(t, Equal(MustList(1), MustMap(nil)))
}

func TestMarshalJSON_SortedKeys(t *testing.T) {
	m := MustMap(map[string]any{"b": 1, "a": []any{true, nil}})
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[true,null],"b":1}`, string(data))
	assert.Equal(t, `{"a":[true,null],"b":1}`, string(data))
}

func TestMarshalJSON_NoHTMLEscaping(t *testing.T) {
	m := MustMap(map[string]any{"tag": MustList("<b>&")})
	data, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"tag":["<b>&"]}`, string(data))
}

func TestThaw_RoundTrip(t *testing.T) {
	src := map[string]any{"a": []any{1, map[string]any{"b": nil}}}
	frozen, err := Freeze(src)
	require.NoError(t, err)

	thawed := Thaw(frozen)
	assert.Equal(t, src, thawed)

	thawed.(map[string]any)["a"] = "changed"
	again := Thaw(frozen).(map[string]any)
	assert.IsType(t, []any{}, again["a"])
}

func TestParse(t *testing.T) {
	v, err := Parse([]byte(`{"n": 5, "f": 1.5, "s": "x", "l": [null, false]}`))
	require.NoError(t, err)

	m := v.(Map)
	n, _ := m.Get("n")
	assert.Equal(t, int64(5), n)
	f, _ := m.Get("f")
	assert.Equal(t, 1.5, f)
	l, _ := m.Get("l")
	assert.Equal(t, []any{Null{}, false}, l.(List).Values())

	_, err = Parse([]byte(`{bad`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"a":1} garbage`))
	assert.Error(t, err)
	_, err = Parse([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
	_, err = Parse([]byte("{\"a\":1}\n"))
	assert.NoError(t, err)

	_, err = Parse([]byte("{\"\u00e9\":1,\"e\u0301\":2}"))
	assert.ErrorIs(t, err, ErrUnfreezable)
}
