package immutable

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ErrUnfreezable is returned when a value graph contains something that has
// no immutable representation: funcs, channels, pointers, unregistered
// structs, or maps keyed by anything other than strings.
var ErrUnfreezable = errors.New("value cannot be frozen")

// maxDepth bounds recursion so a self-referencing map fails instead of
// overflowing the stack.
const maxDepth = 256

// Registry holds the set of types recognized as immutable in addition to the
// built-in family. Registered values are never traversed by Freeze.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[reflect.Type]struct{}
}

// NewRegistry returns a registry that recognizes only the built-in family.
func NewRegistry() *Registry {
	return &Registry{types: make(map[reflect.Type]struct{})}
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(reflect.TypeFor[time.Time]())
	return r
}()

// Register adds t to the recognized immutable types.
// Callers are responsible for t actually having value semantics.
func (r *Registry) Register(t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t] = struct{}{}
}

// Recognizes reports whether t was registered.
func (r *Registry) Recognizes(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[t]
	return ok
}

// Register adds T to the process-wide registry used by Freeze and IsImmutable.
func Register[T any]() {
	defaultRegistry.Register(reflect.TypeFor[T]())
}

// Freeze returns an immutable equivalent of v using the process-wide registry.
//
// Primitives, Null, List, Map and registered types are returned unchanged, so
// Freeze is idempotent. nil becomes Null{}. Slices and arrays become List, and
// string-keyed maps become Map, with every element frozen recursively.
// Anything else fails with ErrUnfreezable.
func Freeze(v any) (any, error) {
	return defaultRegistry.Freeze(v)
}

// IsImmutable reports whether v belongs to the approved immutable family of
// the process-wide registry. It never modifies v.
func IsImmutable(v any) bool {
	return defaultRegistry.IsImmutable(v)
}

// Freeze is the registry-scoped form of the package-level Freeze.
func (r *Registry) Freeze(v any) (any, error) {
	return r.freeze(v, "$", 0)
}

// IsImmutable is the registry-scoped form of the package-level IsImmutable.
func (r *Registry) IsImmutable(v any) bool {
	switch v.(type) {
	case nil, Null, List, Map:
		return true
	}
	t := reflect.TypeOf(v)
	return isPrimitiveKind(t.Kind()) || r.Recognizes(t)
}

func (r *Registry) newList(items []any) (List, error) {
	out := make([]any, len(items))
	for i, item := range items {
		fv, err := r.freeze(item, fmt.Sprintf("$[%d]", i), 0)
		if err != nil {
			return List{}, err
		}
		out[i] = fv
	}
	return List{items: out}, nil
}

func (r *Registry) freeze(v any, path string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d at %s", ErrUnfreezable, maxDepth, path)
	}

	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Null, List, Map:
		return val, nil
	}

	rv := reflect.ValueOf(v)
	if isPrimitiveKind(rv.Kind()) || r.Recognizes(rv.Type()) {
		return v, nil
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			fv, err := r.freeze(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = fv
		}
		return List{items: items}, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key type %s at %s", ErrUnfreezable, rv.Type().Key(), path)
		}
		entries := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := norm.NFC.String(iter.Key().String())
			if _, dup := entries[key]; dup {
				return nil, fmt.Errorf("%w: keys collide after NFC normalization at %s", ErrUnfreezable, path+"."+key)
			}
			fv, err := r.freeze(iter.Value().Interface(), path+"."+key, depth+1)
			if err != nil {
				return nil, err
			}
			entries[key] = fv
		}
		return Map{entries: entries}, nil

	default:
		return nil, fmt.Errorf("%w: %s at %s", ErrUnfreezable, rv.Type(), path)
	}
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	}
	return false
}
