package journal

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/logging"
)

// Namer resolves dispatch tokens to store names.
type Namer interface {
	Name(tok dispatcher.Token) string
}

// Observer records every completed dispatch. Observers cannot fail a
// dispatch, so write errors are logged and counted.
type Observer struct {
	j      *Journal
	names  Namer
	ctx    context.Context
	logger zerolog.Logger
	failed int
}

// NewObserver returns an observer writing to j. names may be nil.
func NewObserver(ctx context.Context, j *Journal, names Namer) *Observer {
	return &Observer{
		j:      j,
		names:  names,
		ctx:    ctx,
		logger: logging.Logger("journal"),
	}
}

// Failed returns how many dispatches could not be recorded.
func (o *Observer) Failed() int { return o.failed }

// BeforeDispatch implements dispatcher.Observer.
func (o *Observer) BeforeDispatch(dispatcher.DispatchInfo) {}

// AfterCallback implements dispatcher.Observer.
func (o *Observer) AfterCallback(dispatcher.DispatchInfo, dispatcher.Token, error) {}

// AfterDispatch implements dispatcher.Observer.
func (o *Observer) AfterDispatch(info dispatcher.DispatchInfo, result dispatcher.DispatchResult) {
	payload, err := MarshalPayload(info.Action.Payload)
	if err != nil {
		o.fail(info, err)
		return
	}

	e := Entry{
		DispatchID:  info.ID,
		Seq:         info.Seq,
		Type:        info.Action.Type,
		Source:      info.Action.Source,
		PayloadJSON: payload,
		Handled:     result.Matched,
		Duration:    result.Duration,
		StartedAt:   info.Started,
	}
	if o.names != nil {
		e.Stores = make([]string, len(result.Matched))
		for i, tok := range result.Matched {
			e.Stores[i] = o.names.Name(tok)
		}
	}
	if result.Err != nil {
		e.Error = result.Err.Error()
	}

	if err := o.j.Record(o.ctx, e); err != nil {
		o.fail(info, err)
	}
}

func (o *Observer) fail(info dispatcher.DispatchInfo, err error) {
	o.failed++
	o.logger.Error().Err(err).Str("dispatch_id", info.ID).Msg("failed to journal dispatch")
}
