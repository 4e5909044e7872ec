package harness

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/actions"
	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/logging"
	"github.com/roach88/strictflux/internal/store"
	"github.com/roach88/strictflux/internal/testutil"
)

// App is the application a scenario runs against.
type App interface {
	Dispatcher() *dispatcher.Dispatcher
	Store(name string) (*store.Store, bool)
	Creator(name string) (*actions.Creators, bool)
}

// ErrorCoder is implemented by applications that define their own error
// codes.
type ErrorCoder interface {
	ErrorCodes() map[string]error
}

// Factory builds a fresh App. It must pass opts to dispatcher.New.
type Factory func(opts ...dispatcher.Option) (App, error)

// Harness runs one scenario. It records every dispatch of the application
// it builds as a TraceEvent.
type Harness struct {
	app    App
	codes  map[string]error
	result *Result
	step   int
	logger zerolog.Logger
}

// Run executes a scenario against a fresh App from factory.
//
// Step and expectation failures are reported in the Result. Run only returns
// an error when the application cannot be built.
func Run(scenario *Scenario, factory Factory) (*Result, error) {
	h := &Harness{
		result: NewResult(),
		logger: logging.Logger("harness"),
	}

	app, err := factory(
		dispatcher.WithIDGenerator(testutil.NewSequenceGenerator("")),
		dispatcher.WithObserver(h),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	h.app = app
	if c, ok := app.(ErrorCoder); ok {
		h.codes = c.ErrorCodes()
	}

	for i, step := range scenario.Steps {
		h.step = i
		h.runStep(step)
	}
	for i, e := range scenario.Expect {
		if err := h.check(e); err != nil {
			h.result.AddError(fmt.Sprintf("expect[%d]: %v", i, err))
		}
	}

	h.logger.Debug().
		Str("scenario", scenario.Name).
		Bool("pass", h.result.Pass).
		Int("events", len(h.result.Trace)).
		Msg("scenario finished")
	return h.result, nil
}

func (h *Harness) runStep(step Step) {
	before := len(h.result.Trace)
	err := h.exec(step)
	code := ErrorCode(err, h.codes)

	if err != nil && len(h.result.Trace) == before {
		ev := TraceEvent{Step: h.step, Kind: EventRejected, Call: step.Call, Error: code}
		if step.Dispatch != nil {
			ev.Type = step.Dispatch.Type
			ev.Source = step.Dispatch.Source
		}
		h.result.Trace = append(h.result.Trace, ev)
	}

	switch {
	case err != nil && step.Error == "":
		h.result.AddError(fmt.Sprintf("steps[%d]: unexpected error %s: %v", h.step, code, err))
	case err == nil && step.Error != "":
		h.result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got success", h.step, step.Error))
	case err != nil && code != step.Error:
		h.result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s: %v", h.step, step.Error, code, err))
	}
	h.logger.Debug().Int("step", h.step).Str("code", code).Msg("step finished")
}

func (h *Harness) exec(step Step) error {
	if step.Dispatch != nil {
		return h.app.Dispatcher().Dispatch(dispatcher.Action{
			Type:    step.Dispatch.Type,
			Source:  step.Dispatch.Source,
			Payload: step.Dispatch.Payload,
		})
	}

	name, method, _ := splitCall(step.Call)
	c, ok := h.app.Creator(name)
	if !ok {
		return fmt.Errorf("unknown creator %q", name)
	}
	return c.Call(method, step.Args...)
}

// BeforeDispatch implements dispatcher.Observer.
func (h *Harness) BeforeDispatch(dispatcher.DispatchInfo) {}

// AfterCallback implements dispatcher.Observer.
func (h *Harness) AfterCallback(dispatcher.DispatchInfo, dispatcher.Token, error) {}

// AfterDispatch implements dispatcher.Observer.
func (h *Harness) AfterDispatch(info dispatcher.DispatchInfo, result dispatcher.DispatchResult) {
	handled := make([]string, len(result.Matched))
	for i, tok := range result.Matched {
		handled[i] = h.app.Dispatcher().Name(tok)
	}
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Step:    h.step,
		Kind:    EventDispatch,
		Seq:     info.Seq,
		ID:      info.ID,
		Type:    info.Action.Type,
		Source:  info.Action.Source,
		Payload: info.Action.Payload,
		Handled: handled,
		Error:   ErrorCode(result.Err, h.codes),
	})
}
