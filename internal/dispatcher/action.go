package dispatcher

import "fmt"

// Action describes an intent. Type and Source are both valid binding keys;
// Payload is deep-frozen by Dispatch before any callback sees it.
type Action struct {
	Type    string `json:"type" yaml:"type"`
	Source  string `json:"source" yaml:"source"`
	Payload any    `json:"payload" yaml:"payload"`
}

func (a Action) String() string {
	if a.Source == "" {
		return a.Type
	}
	return fmt.Sprintf("%s/%s", a.Source, a.Type)
}

// Token identifies a registered callback. Opaque to callers.
type Token string

// Callback receives every dispatched action. The Context is only valid for
// the duration of the call.
type Callback func(ctx *Context, a Action) error
