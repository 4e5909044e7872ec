package actions

import (
	"errors"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrInvalidPayload indicates a payload that does not satisfy the
	// method's payload type.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidCreatorConfiguration indicates a creator set with no source,
	// no methods, an empty action type or a schema that does not compile.
	ErrInvalidCreatorConfiguration = errors.New("invalid action creator configuration")

	// ErrUnknownMethod indicates a call to an undeclared creator method.
	ErrUnknownMethod = errors.New("unknown creator method")
)

// cueMessage returns the first CUE error message, which is the one closest to
// the offending field.
func cueMessage(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
