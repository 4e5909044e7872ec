package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/strictflux/internal/immutable"
)

// ExpectationError is returned when a store expectation does not hold.
type ExpectationError struct {
	Store    string
	Method   string
	Expected any
	Actual   any
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s.%s mismatch\n", e.Store, e.Method)
	fmt.Fprintf(&buf, "  Expected: %#v\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %#v", e.Actual)
	return buf.String()
}

func (h *Harness) check(e Expectation) error {
	if e.Error != "" {
		if !h.result.failedWith(e.Error) {
			return fmt.Errorf("no step failed with %s", e.Error)
		}
		return nil
	}

	s, ok := h.app.Store(e.Store)
	if !ok {
		return fmt.Errorf("unknown store %q", e.Store)
	}
	v, err := s.Call(e.Method, e.Args...)
	if err != nil {
		return err
	}

	actual := immutable.Thaw(v)
	if !valuesEqual(actual, e.Value) {
		return &ExpectationError{Store: e.Store, Method: e.Method, Expected: e.Value, Actual: actual}
	}
	return nil
}

// valuesEqual compares a thawed store value with a YAML-decoded one.
// Integer and float kinds are compared by value, not by Go type.
func valuesEqual(actual, expected any) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}
