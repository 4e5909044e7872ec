package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"
)

// Compile extracts every creator and store declaration from v.
// It stops at the first error.
//
//	creators: TodoActions: {
//		source: "VIEW_ACTION"
//		methods: add: {type: "TODO_ADD", payload: {title: string}}
//	}
//	stores: StatsStore: {handles: ["TODO_ADD"], waitFor: ["TodoStore"]}
func Compile(v cue.Value) (*Declarations, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decls := &Declarations{}
	err := eachField(v, "creators", func(fv cue.Value) error {
		c, err := CompileCreator(fv)
		if err != nil {
			return err
		}
		decls.Creators = append(decls.Creators, *c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachField(v, "stores", func(fv cue.Value) error {
		s, err := CompileStore(fv)
		if err != nil {
			return err
		}
		decls.Stores = append(decls.Stores, *s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decls, nil
}

func eachField(v cue.Value, path string, fn func(cue.Value) error) error {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// CompileCreator parses a CUE value into a CreatorDecl. The value should be
// the creator struct itself, e.g. the value at "creators.TodoActions".
func CompileCreator(v cue.Value) (*CreatorDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &CreatorDecl{Name: label(v)}

	sourceVal := v.LookupPath(cue.ParsePath("source"))
	if !sourceVal.Exists() {
		return nil, &CompileError{Field: "source", Message: "source is required", Pos: v.Pos()}
	}
	source, err := sourceVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	decl.Source = source

	methodsVal := v.LookupPath(cue.ParsePath("methods"))
	if !methodsVal.Exists() {
		return nil, &CompileError{Field: "methods", Message: "at least one method is required", Pos: v.Pos()}
	}
	iter, err := methodsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		m, err := compileMethod(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, m)
	}
	if len(decl.Methods) == 0 {
		return nil, &CompileError{Field: "methods", Message: "at least one method is required", Pos: methodsVal.Pos()}
	}
	return decl, nil
}

func compileMethod(name string, v cue.Value) (MethodDecl, error) {
	m := MethodDecl{Name: name}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return m, &CompileError{Field: fmt.Sprintf("methods.%s.type", name), Message: "action type is required", Pos: v.Pos()}
	}
	typ, err := typeVal.String()
	if err != nil {
		return m, formatCUEError(err)
	}
	m.Type = typ

	payloadVal := v.LookupPath(cue.ParsePath("payload"))
	if payloadVal.Exists() {
		src, err := format.Node(payloadVal.Syntax(cue.Docs(false)))
		if err != nil {
			return m, &CompileError{Field: fmt.Sprintf("methods.%s.payload", name), Message: err.Error(), Pos: payloadVal.Pos()}
		}
		m.Payload = string(src)
	}
	return m, nil
}

// CompileStore parses a CUE value into a StoreDecl.
func CompileStore(v cue.Value) (*StoreDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &StoreDecl{Name: label(v)}

	handles, err := stringList(v, "handles")
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, &CompileError{Field: "handles", Message: "a store must handle at least one identifier", Pos: v.Pos()}
	}
	decl.Handles = handles

	decl.WaitFor, err = stringList(v, "waitFor")
	if err != nil {
		return nil, err
	}
	return decl, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func label(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return sels[len(sels)-1].String()
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
