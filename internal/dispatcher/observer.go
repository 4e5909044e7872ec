package dispatcher

import "time"

// Observer receives dispatch lifecycle notifications. Observers run on the
// dispatching goroutine and must not dispatch.
type Observer interface {
	BeforeDispatch(info DispatchInfo)
	AfterCallback(info DispatchInfo, token Token, err error)
	AfterDispatch(info DispatchInfo, result DispatchResult)
}

// DispatchInfo identifies one dispatch.
type DispatchInfo struct {
	ID      string
	Seq     int64
	Action  Action
	Started time.Time
}

// DispatchResult summarizes a finished dispatch.
type DispatchResult struct {
	// Invoked lists callbacks in the order they finished.
	Invoked []Token

	// Matched lists callbacks that reported doing work via Context.MarkHandled.
	Matched []Token

	Duration time.Duration
	Err      error
}
