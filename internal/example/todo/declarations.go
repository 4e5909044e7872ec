package todo

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/strictflux/internal/compiler"
)

//go:embed todo.cue
var declarationsSource string

// Action identifiers and the source used by TodoActions.
const (
	ActionAdd            = "TODO_ADD"
	ActionToggle         = "TODO_TOGGLE"
	ActionClearCompleted = "TODO_CLEAR_COMPLETED"

	SourceView = "VIEW_ACTION"
)

// Declarations compiles and validates the embedded todo.cue.
func Declarations() (*compiler.Declarations, error) {
	v := cuecontext.New().CompileString(declarationsSource, cue.Filename("todo.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile todo.cue: %w", err)
	}
	decls, err := compiler.Compile(v)
	if err != nil {
		return nil, fmt.Errorf("compile todo.cue: %w", err)
	}
	if errs := compiler.Validate(decls); len(errs) > 0 {
		return nil, fmt.Errorf("validate todo.cue: %w", errs[0])
	}
	return decls, nil
}
