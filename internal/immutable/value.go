package immutable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Null is the frozen representation of a missing value.
// Freeze(nil) returns Null{} so that payloads always hold a concrete value.
type Null struct{}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (Null) String() string { return "null" }

// List is an immutable ordered sequence of frozen values.
// The zero value is an empty list.
type List struct {
	items []any
}

// NewList freezes each element and returns them as a List.
func NewList(items ...any) (List, error) {
	return defaultRegistry.newList(items)
}

// MustList is NewList for literals in tests and examples. Panics on error.
func MustList(items ...any) List {
	l, err := NewList(items...)
	if err != nil {
		panic(err)
	}
	return l
}

// Len returns the number of elements.
func (l List) Len() int { return len(l.items) }

// At returns the element at index i. Panics if i is out of range, like a slice.
func (l List) At(i int) any { return l.items[i] }

// Values returns a copy of the elements. The elements themselves are frozen,
// so a shallow copy is enough to keep the list sealed.
func (l List) Values() []any {
	return slices.Clone(l.items)
}

// All iterates over index/value pairs in order.
func (l List) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Append returns a new list with vals frozen and appended.
func (l List) Append(vals ...any) (List, error) {
	out := make([]any, len(l.items), len(l.items)+len(vals))
	copy(out, l.items)
	for i, v := range vals {
		fv, err := defaultRegistry.freeze(v, fmt.Sprintf("$[%d]", len(l.items)+i), 0)
		if err != nil {
			return List{}, err
		}
		out = append(out, fv)
	}
	return List{items: out}, nil
}

// Set returns a new list with index i replaced by v.
func (l List) Set(i int, v any) (List, error) {
	if i < 0 || i >= len(l.items) {
		return List{}, fmt.Errorf("list index %d out of range [0,%d)", i, len(l.items))
	}
	fv, err := defaultRegistry.freeze(v, fmt.Sprintf("$[%d]", i), 0)
	if err != nil {
		return List{}, err
	}
	out := slices.Clone(l.items)
	out[i] = fv
	return List{items: out}, nil
}

// Filter returns a new list holding the elements for which keep returns true.
func (l List) Filter(keep func(any) bool) List {
	var out []any
	for _, v := range l.items {
		if keep(v) {
			out = append(out, v)
		}
	}
	return List{items: out}
}

// Equal reports deep equality with another list.
func (l List) Equal(other List) bool {
	if len(l.items) != len(other.items) {
		return false
	}
	for i := range l.items {
		if !Equal(l.items[i], other.items[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range l.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("list[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Map is an immutable string-keyed dictionary of frozen values.
// The zero value is an empty map.
type Map struct {
	entries map[string]any
}

// NewMap freezes each value of m and returns them as a Map.
func NewMap(m map[string]any) (Map, error) {
	v, err := defaultRegistry.freeze(m, "$", 0)
	if err != nil {
		return Map{}, err
	}
	return v.(Map), nil
}

// MustMap is NewMap for literals in tests and examples. Panics on error.
func MustMap(m map[string]any) Map {
	out, err := NewMap(m)
	if err != nil {
		panic(err)
	}
	return out
}

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	v, ok := m.entries[norm.NFC.String(key)]
	return v, ok
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.entries) }

// Keys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's default string ordering is UTF-8 and sorts some keys differently.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// All iterates over entries in Keys order.
func (m Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range m.Keys() {
			if !yield(k, m.entries[k]) {
				return
			}
		}
	}
}

// With returns a new map with key set to the frozen v.
func (m Map) With(key string, v any) (Map, error) {
	key = norm.NFC.String(key)
	fv, err := defaultRegistry.freeze(v, "$."+key, 0)
	if err != nil {
		return Map{}, err
	}
	out := make(map[string]any, len(m.entries)+1)
	for k, ev := range m.entries {
		out[k] = ev
	}
	out[key] = fv
	return Map{entries: out}, nil
}

// Without returns a new map with key removed.
func (m Map) Without(key string) Map {
	key = norm.NFC.String(key)
	if _, ok := m.entries[key]; !ok {
		return m
	}
	out := make(map[string]any, len(m.entries))
	for k, ev := range m.entries {
		if k != key {
			out[k] = ev
		}
	}
	return Map{entries: out}
}

// Equal reports deep equality with another map.
func (m Map) Equal(other Map) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for k, v := range m.entries {
		ov, ok := other.entries[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler with keys in RFC 8785 order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalValue(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := marshalValue(m.entries[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Equal reports deep equality between two frozen values.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		return ok && av.Equal(bv)
	case Map:
		bv, ok := b.(Map)
		return ok && av.Equal(bv)
	case nil:
		_, isNull := b.(Null)
		return b == nil || isNull
	case Null:
		_, isNull := b.(Null)
		return b == nil || isNull
	}
	return reflect.DeepEqual(a, b)
}

// Thaw deep-copies a frozen value back into plain Go structures:
// List becomes []any, Map becomes map[string]any, Null becomes nil.
// Other values are returned unchanged. The result shares nothing with v.
func Thaw(v any) any {
	switch val := v.(type) {
	case Null:
		return nil
	case List:
		out := make([]any, len(val.items))
		for i, item := range val.items {
			out[i] = Thaw(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val.entries))
		for k, item := range val.entries {
			out[k] = Thaw(item)
		}
		return out
	default:
		return v
	}
}

// marshalValue is json.Marshal without HTML escaping.
func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
