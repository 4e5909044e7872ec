// Package immutable provides the deep freezer and immutability checker used
// at both edges of the flux data flow.
//
// Every dispatched payload passes through Freeze before any store sees it, and
// every value a store returns from a public method is checked with
// IsImmutable before it reaches a caller.
//
// The approved immutable family is closed:
//   - primitive kinds (bool, integers, floats, complex, string, and named
//     types built on them)
//   - Null, the frozen stand-in for a nil payload
//   - List and Map, persistent containers with unexported storage
//   - any type added with Register
//
// List and Map never expose their backing slice or map. Updates return a new
// value and leave the receiver untouched, so a reference handed out by a store
// can be kept indefinitely without observing later mutations.
//
// Map keys are NFC normalized and iterated in RFC 8785 order (UTF-16 code
// units), so traces and journal rows are byte-identical across runs.
package immutable
