package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDecls() *Declarations {
	return &Declarations{
		Creators: []CreatorDecl{{
			Name:   "TodoActions",
			Source: "VIEW_ACTION",
			Methods: []MethodDecl{
				{Name: "add", Type: "TODO_ADD", Payload: "{title: string}"},
				{Name: "clear", Type: "TODO_CLEAR"},
			},
		}},
		Stores: []StoreDecl{
			{Name: "TodoStore", Handles: []string{"TODO_ADD", "TODO_CLEAR"}},
			{Name: "StatsStore", Handles: []string{"VIEW_ACTION"}, WaitFor: []string{"TodoStore"}},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validDecls()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Declarations)
		code   string
	}{
		{"empty source", func(d *Declarations) { d.Creators[0].Source = "" }, ErrCreatorSourceEmpty},
		{"no methods", func(d *Declarations) { d.Creators[0].Methods = nil }, ErrCreatorNoMethods},
		{"empty type", func(d *Declarations) { d.Creators[0].Methods[1].Type = "" }, ErrMethodTypeEmpty},
		{"lowercase type", func(d *Declarations) { d.Creators[0].Methods[1].Type = "todoClear" }, ErrInvalidIdentifier},
		{"duplicate creator", func(d *Declarations) { d.Creators = append(d.Creators, d.Creators[0]) }, ErrDuplicateName},
		{"duplicate type", func(d *Declarations) { d.Creators[0].Methods[1].Type = "TODO_ADD" }, ErrDuplicateActionType},
		{"bad schema", func(d *Declarations) { d.Creators[0].Methods[0].Payload = "{title: " }, ErrInvalidPayloadSchema},
		{"store without handles", func(d *Declarations) { d.Stores[0].Handles = nil }, ErrStoreNoHandles},
		{"unknown waitFor", func(d *Declarations) { d.Stores[1].WaitFor = []string{"Ghost"} }, ErrUnknownWaitFor},
		{"unknown identifier", func(d *Declarations) { d.Stores[0].Handles = []string{"TODO_DELETE"} }, ErrUnknownIdentifier},
		{"cycle", func(d *Declarations) {
			d.Stores[0].WaitFor = []string{"StatsStore"}
			d.Stores[1].Handles = []string{"TODO_ADD"}
		}, ErrCyclicWaitFor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDecls()
			tt.mutate(d)
			assert.Contains(t, codes(Validate(d)), tt.code)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	d := validDecls()
	d.Creators[0].Source = ""
	d.Stores[1].WaitFor = []string{"Ghost"}

	// StatsStore handles VIEW_ACTION, which is no longer produced.
	assert.ElementsMatch(t,
		[]string{ErrCreatorSourceEmpty, ErrUnknownIdentifier, ErrUnknownWaitFor},
		codes(Validate(d)))
}

func TestValidate_WarningCycleNotReported(t *testing.T) {
	d := validDecls()
	d.Stores[0].WaitFor = []string{"StatsStore"}
	assert.NotContains(t, codes(Validate(d)), ErrCyclicWaitFor)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "creators.X.source", Message: "source is required", Code: ErrCreatorSourceEmpty}
	assert.Equal(t, "[E101] creators.X.source: source is required", err.Error())
}
