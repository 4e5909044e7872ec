package dispatcher

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is against these; the concrete error returned
// by the dispatcher is a *DispatchError carrying the details.
var (
	// ErrCyclicDependency indicates a WaitFor chain reached a callback that
	// is still running.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrDispatchInProgress indicates Dispatch was called while another
	// dispatch was underway.
	ErrDispatchInProgress = errors.New("cannot dispatch in the middle of a dispatch")

	// ErrNotDispatching indicates WaitFor was called outside a dispatch.
	ErrNotDispatching = errors.New("WaitFor must be invoked while dispatching")

	// ErrUnknownToken indicates a token that is not (or no longer) registered.
	ErrUnknownToken = errors.New("unknown dispatch token")
)

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	CodeCyclicDependency   ErrorCode = "CYCLIC_DEPENDENCY"
	CodeDispatchInProgress ErrorCode = "DISPATCH_IN_PROGRESS"
	CodeNotDispatching     ErrorCode = "NOT_DISPATCHING"
	CodeUnknownToken       ErrorCode = "UNKNOWN_TOKEN"
)

// DispatchError is a programmer error detected by the dispatcher.
// It unwraps to the sentinel matching its Code.
type DispatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Token is the registration involved, if any.
	Token Token

	// ActionType is the type of the action being dispatched, if any.
	ActionType string

	// Path is the WaitFor chain that led to a cycle, ending with the token
	// that was revisited.
	Path []Token
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Token != "" {
		fmt.Fprintf(&b, " (token=%s", e.Token)
		if e.ActionType != "" {
			fmt.Fprintf(&b, ", action=%s", e.ActionType)
		}
		b.WriteString(")")
	} else if e.ActionType != "" {
		fmt.Fprintf(&b, " (action=%s)", e.ActionType)
	}
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, t := range e.Path {
			parts[i] = string(t)
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, " -> "))
	}
	return b.String()
}

// Unwrap returns the sentinel for e.Code so errors.Is works.
func (e *DispatchError) Unwrap() error {
	switch e.Code {
	case CodeCyclicDependency:
		return ErrCyclicDependency
	case CodeDispatchInProgress:
		return ErrDispatchInProgress
	case CodeNotDispatching:
		return ErrNotDispatching
	case CodeUnknownToken:
		return ErrUnknownToken
	}
	return nil
}

// IsCycleError returns true if err is, or wraps, a cycle error.
func IsCycleError(err error) bool {
	return errors.Is(err, ErrCyclicDependency)
}

// HandlerPanicError wraps a panic recovered from a callback.
type HandlerPanicError struct {
	Token Token
	Value any
	Stack []byte
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("callback %s panicked: %v", e.Token, e.Value)
}

// Unwrap exposes a panicked error value to errors.Is / errors.As.
func (e *HandlerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newCycleError(actionType string, path []Token) *DispatchError {
	return &DispatchError{
		Code:       CodeCyclicDependency,
		Message:    "WaitFor reached a callback that is still running",
		Token:      path[len(path)-1],
		ActionType: actionType,
		Path:       path,
	}
}

func newUnknownTokenError(token Token, actionType string) *DispatchError {
	return &DispatchError{
		Code:       CodeUnknownToken,
		Message:    "token does not map to a registered callback",
		Token:      token,
		ActionType: actionType,
	}
}

func newInProgressError(actionType string) *DispatchError {
	return &DispatchError{
		Code:       CodeDispatchInProgress,
		Message:    "cannot dispatch in the middle of a dispatch",
		ActionType: actionType,
	}
}

func newNotDispatchingError() *DispatchError {
	return &DispatchError{
		Code:    CodeNotDispatching,
		Message: "WaitFor must be invoked while dispatching",
	}
}
