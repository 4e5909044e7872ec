package harness

import (
	"errors"
	"maps"
	"slices"

	"github.com/roach88/strictflux/internal/actions"
	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/store"
)

// CodeUnknown is the code for errors no table entry matches.
const CodeUnknown = "ERROR"

type codedError struct {
	code string
	err  error
}

// libraryCodes is checked in order; the first match wins.
var libraryCodes = []codedError{
	{"INVALID_PAYLOAD", actions.ErrInvalidPayload},
	{"UNKNOWN_METHOD", actions.ErrUnknownMethod},
	{"UNKNOWN_METHOD", store.ErrUnknownMethod},
	{"MUTABLE_LEAK", store.ErrMutableLeak},
	{"UNFREEZABLE", immutable.ErrUnfreezable},
	{"INVALID_ACTION_IDENTIFIER", store.ErrInvalidActionIdentifier},
	{"INVALID_HANDLER", store.ErrInvalidHandler},
	{"BINDINGS_SEALED", store.ErrBindingsSealed},
}

// ErrorCode classifies err for scenario expectations. extra holds
// application codes and is consulted after dispatcher codes and before the
// library table.
func ErrorCode(err error, extra map[string]error) string {
	if err == nil {
		return ""
	}

	var de *dispatcher.DispatchError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	var pe *dispatcher.HandlerPanicError
	if errors.As(err, &pe) {
		return "HANDLER_PANIC"
	}

	for _, code := range slices.Sorted(maps.Keys(extra)) {
		if errors.Is(err, extra[code]) {
			return code
		}
	}
	for _, c := range libraryCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
