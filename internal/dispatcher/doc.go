// Package dispatcher implements the single synchronous dispatch channel that
// every action flows through.
//
// ARCHITECTURE:
//
// Registration table:
// Callbacks are registered once and receive a Token. Tokens come from a
// monotonic counter and are never reused, so a token held by another store
// stays valid (or becomes unknown) but never points at a different callback.
//
// Dispatch:
//  1. Reject the call if another dispatch is underway (re-entrant or concurrent).
//  2. Deep-freeze the payload with immutable.Freeze.
//  3. Snapshot the registration table into a per-dispatch Context, with every
//     callback pending.
//  4. Invoke pending callbacks in registration order.
//  5. Inside a callback, Context.WaitFor invokes the named callbacks first.
//     Reaching a callback that is still running means the WaitFor chain has
//     looped back on itself: that is a cycle and the dispatch fails.
//  6. Drop the Context and release the dispatching flag.
//
// There is no suspension point. WaitFor is a plain recursive call on the
// dispatching goroutine, and the whole dispatch either completes or returns
// the first error.
//
// CRITICAL PATTERNS:
//
// Logical clock:
// Each dispatch is stamped with a seq from Clock.Next() so diagnostics and the
// journal order dispatches without relying on wall time.
//
// Fail fast:
// Cycles, re-entrant dispatch and unknown tokens are programmer errors. They
// abort the dispatch and are never retried. A callback that swallows an error
// from WaitFor does not hide it: Dispatch still returns it.
package dispatcher
