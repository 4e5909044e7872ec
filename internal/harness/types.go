package harness

// Trace event kinds.
const (
	// EventDispatch is a dispatch that reached the dispatcher.
	EventDispatch = "dispatch"

	// EventRejected is a step that failed before anything was dispatched,
	// such as a creator call with an invalid payload.
	EventRejected = "rejected"
)

// TraceEvent is one entry in a scenario trace.
type TraceEvent struct {
	Step    int      `json:"step" yaml:"step"`
	Kind    string   `json:"kind" yaml:"kind"`
	Call    string   `json:"call,omitempty" yaml:"call,omitempty"`
	Seq     int64    `json:"seq,omitempty" yaml:"seq,omitempty"`
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	Payload any      `json:"payload,omitempty" yaml:"payload,omitempty"`
	Handled []string `json:"handled,omitempty" yaml:"handled,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step and expectation held.
	Pass bool `json:"pass"`

	// Trace lists dispatches and rejected steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed step or expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// failedWith reports whether any trace event carries code.
func (r *Result) failedWith(code string) bool {
	for _, ev := range r.Trace {
		if ev.Error == code {
			return true
		}
	}
	return false
}
