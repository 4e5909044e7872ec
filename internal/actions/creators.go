package actions

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/rs/zerolog"

	"github.com/roach88/strictflux/internal/dispatcher"
	"github.com/roach88/strictflux/internal/immutable"
	"github.com/roach88/strictflux/internal/logging"
)

// Dispatcher is the part of *dispatcher.Dispatcher that creators need.
type Dispatcher interface {
	Dispatch(a dispatcher.Action) error
}

// MethodSpec declares one creator method.
type MethodSpec struct {
	// ActionType is required.
	ActionType string

	// PayloadType is a CUE expression the payload must unify with. Empty
	// means the action carries no payload.
	PayloadType string

	// CreatePayload builds the payload from the call arguments. Without it
	// the payload is the single argument, or nil when there are none.
	CreatePayload func(args ...any) (any, error)
}

// CreatorConfig declares a set of creator methods sharing one source.
type CreatorConfig struct {
	DisplayName  string
	ActionSource string
	Methods      map[string]MethodSpec
}

// Creators dispatches actions built from a CreatorConfig.
//
// Thread-safety: Call and Build are safe for concurrent use; the dispatcher
// still rejects overlapping dispatches.
type Creators struct {
	d      Dispatcher
	cfg    CreatorConfig
	logger zerolog.Logger

	mu      sync.Mutex
	cuectx  *cue.Context
	schemas map[string]cue.Value
}

// New validates cfg and compiles every payload schema.
func New(d Dispatcher, cfg CreatorConfig) (*Creators, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", ErrInvalidCreatorConfiguration)
	}
	if cfg.ActionSource == "" {
		return nil, fmt.Errorf("%w: %s: action source is required", ErrInvalidCreatorConfiguration, cfg.DisplayName)
	}
	if len(cfg.Methods) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one method is required", ErrInvalidCreatorConfiguration, cfg.DisplayName)
	}

	cfg.Methods = maps.Clone(cfg.Methods)
	c := &Creators{
		d:       d,
		cfg:     cfg,
		logger:  logging.Logger("actions").With().Str("creators", cfg.DisplayName).Logger(),
		cuectx:  cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Methods)) {
		spec := cfg.Methods[name]
		if spec.ActionType == "" {
			return nil, fmt.Errorf("%w: %s.%s: action type is required", ErrInvalidCreatorConfiguration, cfg.DisplayName, name)
		}
		if spec.PayloadType == "" {
			continue
		}
		schema := c.cuectx.CompileString(spec.PayloadType, cue.Filename(cfg.DisplayName+"."+name))
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: payload type: %s", ErrInvalidCreatorConfiguration, cfg.DisplayName, name, cueMessage(err))
		}
		c.schemas[name] = schema
	}
	return c, nil
}

// DisplayName returns the creator set's name.
func (c *Creators) DisplayName() string { return c.cfg.DisplayName }

// Source returns the ActionSource stamped on every action.
func (c *Creators) Source() string { return c.cfg.ActionSource }

// Methods returns the declared method names, sorted.
func (c *Creators) Methods() []string {
	return slices.Sorted(maps.Keys(c.cfg.Methods))
}

// Has reports whether method is declared.
func (c *Creators) Has(method string) bool {
	_, ok := c.cfg.Methods[method]
	return ok
}

// Call builds the action for method and dispatches it.
func (c *Creators) Call(method string, args ...any) error {
	a, err := c.Build(method, args...)
	if err != nil {
		return err
	}
	c.logger.Debug().Str("method", method).Str("type", a.Type).Msg("dispatching")
	return c.d.Dispatch(a)
}

// Build returns the validated action for method without dispatching it.
func (c *Creators) Build(method string, args ...any) (dispatcher.Action, error) {
	spec, ok := c.cfg.Methods[method]
	if !ok {
		return dispatcher.Action{}, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, c.cfg.DisplayName, method)
	}

	payload, err := c.payload(spec, args)
	if err != nil {
		return dispatcher.Action{}, fmt.Errorf("%s.%s: %w", c.cfg.DisplayName, method, err)
	}
	frozen, err := immutable.Freeze(payload)
	if err != nil {
		return dispatcher.Action{}, fmt.Errorf("%w: %s.%s: %w", ErrInvalidPayload, c.cfg.DisplayName, method, err)
	}
	if err := c.validate(method, spec, frozen); err != nil {
		return dispatcher.Action{}, err
	}

	return dispatcher.Action{
		Type:    spec.ActionType,
		Source:  c.cfg.ActionSource,
		Payload: frozen,
	}, nil
}

func (c *Creators) payload(spec MethodSpec, args []any) (any, error) {
	if spec.CreatePayload != nil {
		return spec.CreatePayload(args...)
	}
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return args[0], nil
	default:
		return nil, fmt.Errorf("%w: %d arguments without a payload builder", ErrInvalidPayload, len(args))
	}
}

func (c *Creators) validate(method string, spec MethodSpec, payload any) error {
	if spec.PayloadType == "" {
		if _, ok := payload.(immutable.Null); !ok {
			return fmt.Errorf("%w: %s.%s takes no payload, got %T", ErrInvalidPayload, c.cfg.DisplayName, method, payload)
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.cuectx.Encode(immutable.Thaw(payload))
	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %s.%s: %s", ErrInvalidPayload, c.cfg.DisplayName, method, cueMessage(err))
	}
	if err := c.schemas[method].Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s.%s: %s", ErrInvalidPayload, c.cfg.DisplayName, method, cueMessage(err))
	}
	return nil
}
