package dispatcher

import (
	"runtime/debug"
	"slices"
)

type callbackState int

const (
	statePending callbackState = iota
	stateRunning
	stateHandled
)

type entry struct {
	callback Callback
	state    callbackState
}

// Context is the per-dispatch state handed to every callback. It is built at
// the start of Dispatch and discarded when Dispatch returns; calling WaitFor on
// a discarded Context fails with ErrNotDispatching.
type Context struct {
	d       *Dispatcher
	info    DispatchInfo
	entries map[Token]*entry
	order   []Token

	// stack holds the callbacks currently running, innermost last.
	stack    []Token
	invoked  []Token
	matched  []Token
	deferred []func()
	err      error
	done     bool
}

// ID returns the dispatch ID.
func (c *Context) ID() string { return c.info.ID }

// Seq returns the dispatch sequence number.
func (c *Context) Seq() int64 { return c.info.Seq }

// Action returns the action being dispatched, with its payload frozen.
func (c *Context) Action() Action { return c.info.Action }

// Current returns the token of the innermost running callback.
func (c *Context) Current() Token {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1]
}

// MarkHandled records that the running callback acted on the action.
// Diagnostics use it to tell stores that matched from stores that ignored it.
func (c *Context) MarkHandled() {
	tok := c.Current()
	if tok != "" && !slices.Contains(c.matched, tok) {
		c.matched = append(c.matched, tok)
	}
}

// Defer schedules fn to run after the dispatch completes successfully and the
// dispatcher is free again. Deferred funcs run in the order they were added
// and are dropped if the dispatch fails.
func (c *Context) Defer(fn func()) {
	c.deferred = append(c.deferred, fn)
}

// WaitFor invokes the callbacks for tokens that have not run yet in this
// dispatch, in the order given. Callbacks that already finished are skipped.
//
// Fails with ErrCyclicDependency if a token is still running, with
// ErrUnknownToken if it is not registered, and with ErrNotDispatching if the
// dispatch has ended. Failures are also recorded on the dispatch so that
// Dispatch returns them even if the caller ignores this return value.
func (c *Context) WaitFor(tokens ...Token) error {
	if c.done {
		return newNotDispatchingError()
	}
	if c.err != nil {
		return c.err
	}

	for _, tok := range tokens {
		e, ok := c.entries[tok]
		if !ok {
			return c.fail(newUnknownTokenError(tok, c.info.Action.Type))
		}

		switch e.state {
		case stateHandled:
			continue
		case stateRunning:
			path := append(slices.Clone(c.stack), tok)
			return c.fail(newCycleError(c.info.Action.Type, path))
		}

		if err := c.invoke(tok); err != nil {
			return err
		}
	}
	return nil
}

// invoke runs one pending callback and marks it handled.
func (c *Context) invoke(tok Token) error {
	e := c.entries[tok]
	e.state = stateRunning
	c.stack = append(c.stack, tok)

	err := c.call(tok, e.callback)

	c.stack = c.stack[:len(c.stack)-1]
	e.state = stateHandled
	c.invoked = append(c.invoked, tok)

	for _, o := range c.d.observers {
		o.AfterCallback(c.info, tok, err)
	}

	if err != nil {
		return c.fail(err)
	}
	return c.err
}

func (c *Context) call(tok Token, cb Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{Token: tok, Value: r, Stack: debug.Stack()}
		}
	}()
	return cb(c, c.info.Action)
}

// fail records the first error of the dispatch and returns err.
func (c *Context) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}
