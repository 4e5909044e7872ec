package immutable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse decodes JSON into a frozen value.
// Integers decode as int64 and other numbers as float64. JSON null decodes as
// Null{}.
func Parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return fromJSON(raw)
}

func fromJSON(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool, string:
		return val, nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			f, err := val.Float64()
			if err != nil {
				return nil, fmt.Errorf("number %s: %w", s, err)
			}
			return f, nil
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return n, nil
	case []any:
		items := make([]any, len(val))
		for i, elem := range val {
			fv, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			items[i] = fv
		}
		return List{items: items}, nil
	case map[string]any:
		entries := make(map[string]any, len(val))
		for k, elem := range val {
			fv, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			entries[k] = fv
		}
		return Freeze(entries)
	default:
		return nil, fmt.Errorf("unsupported JSON type: %T", v)
	}
}
