package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStoreConfiguration indicates New was given a missing Init,
	// an empty Public map, a nil Private map, or conflicting method names.
	ErrInvalidStoreConfiguration = errors.New("invalid store configuration")

	// ErrInvalidActionIdentifier indicates a nil, empty or non-string
	// identifier was passed to BindActions.
	ErrInvalidActionIdentifier = errors.New("invalid action identifier")

	// ErrInvalidHandler indicates a BindActions handler that is not a
	// private method of this store.
	ErrInvalidHandler = errors.New("invalid action handler")

	// ErrUnevenBindingArgs indicates BindActions got an odd argument count.
	ErrUnevenBindingArgs = errors.New("BindActions requires an even number of arguments")

	// ErrBindingsSealed indicates BindActions was called after Init returned.
	ErrBindingsSealed = errors.New("action bindings are sealed after init")

	// ErrMutableLeak indicates a public method returned a mutable value.
	ErrMutableLeak = errors.New("public method returned a mutable value")

	// ErrUnknownMethod indicates a call to a method the store does not have.
	ErrUnknownMethod = errors.New("unknown method")
)

// MutableLeakError reports which accessor leaked which type.
type MutableLeakError struct {
	Store  string
	Method string
	Type   string
}

func (e *MutableLeakError) Error() string {
	return fmt.Sprintf("%s.%s returned mutable %s; return a primitive, immutable.List or immutable.Map",
		e.Store, e.Method, e.Type)
}

// Unwrap returns ErrMutableLeak.
func (e *MutableLeakError) Unwrap() error {
	return ErrMutableLeak
}
