package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"cuelang.org/go/cue/cuecontext"
)

// Validation error codes (E100-E199)
const (
	// Creator errors (E101-E109)
	ErrCreatorSourceEmpty   = "E101" // source is required
	ErrCreatorNoMethods     = "E102" // at least one method required
	ErrMethodTypeEmpty      = "E103" // action type is required
	ErrInvalidIdentifier    = "E104" // identifier is not UPPER_SNAKE_CASE
	ErrDuplicateName        = "E105" // duplicate creator/method/store name
	ErrDuplicateActionType  = "E106" // two methods produce the same type
	ErrInvalidPayloadSchema = "E107" // payload schema does not compile

	// Store errors (E110-E119)
	ErrStoreNoHandles    = "E110" // store handles nothing
	ErrUnknownWaitFor    = "E111" // waitFor names an undeclared store
	ErrUnknownIdentifier = "E112" // handled identifier never produced
	ErrCyclicWaitFor     = "E113" // waitFor cycle on a shared identifier
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// identifierPattern matches action types and sources: "TODO_ADD", "VIEW_ACTION".
var identifierPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)

// Validate checks compiled declarations. It returns all errors found, not
// just the first. Cycle warnings at "error" level are included; plain
// warnings are left to AnalyzeCycles.
func Validate(d *Declarations) []ValidationError {
	var errs []ValidationError

	cuectx := cuecontext.New()
	produced := make(map[string]bool)
	creatorNames := make(map[string]bool)
	typeOwners := make(map[string]string)

	for i, c := range d.Creators {
		field := fmt.Sprintf("creators.%s", c.Name)

		if creatorNames[c.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("creators[%d]", i),
				Message: fmt.Sprintf("duplicate creator name: %q", c.Name),
				Code:    ErrDuplicateName,
			})
		}
		creatorNames[c.Name] = true

		if strings.TrimSpace(c.Source) == "" {
			errs = append(errs, ValidationError{Field: field + ".source", Message: "source is required", Code: ErrCreatorSourceEmpty})
		} else {
			errs = append(errs, validateIdentifier(c.Source, field+".source")...)
			produced[c.Source] = true
		}

		if len(c.Methods) == 0 {
			errs = append(errs, ValidationError{Field: field + ".methods", Message: "at least one method is required", Code: ErrCreatorNoMethods})
		}

		methodNames := make(map[string]bool)
		for _, m := range c.Methods {
			mfield := fmt.Sprintf("%s.methods.%s", field, m.Name)
			if methodNames[m.Name] {
				errs = append(errs, ValidationError{Field: mfield, Message: fmt.Sprintf("duplicate method name: %q", m.Name), Code: ErrDuplicateName})
			}
			methodNames[m.Name] = true

			if strings.TrimSpace(m.Type) == "" {
				errs = append(errs, ValidationError{Field: mfield + ".type", Message: "action type is required", Code: ErrMethodTypeEmpty})
				continue
			}
			errs = append(errs, validateIdentifier(m.Type, mfield+".type")...)

			owner := c.Name + "." + m.Name
			if prev, ok := typeOwners[m.Type]; ok {
				errs = append(errs, ValidationError{
					Field:   mfield + ".type",
					Message: fmt.Sprintf("action type %q is also produced by %s", m.Type, prev),
					Code:    ErrDuplicateActionType,
				})
			} else {
				typeOwners[m.Type] = owner
			}
			produced[m.Type] = true

			if m.Payload != "" {
				if err := cuectx.CompileString(m.Payload).Err(); err != nil {
					errs = append(errs, ValidationError{
						Field:   mfield + ".payload",
						Message: formatCUEError(err).Error(),
						Code:    ErrInvalidPayloadSchema,
					})
				}
			}
		}
	}

	storeNames := make(map[string]bool)
	for _, s := range d.Stores {
		if storeNames[s.Name] {
			errs = append(errs, ValidationError{Field: "stores." + s.Name, Message: fmt.Sprintf("duplicate store name: %q", s.Name), Code: ErrDuplicateName})
		}
		storeNames[s.Name] = true
	}

	for _, s := range d.Stores {
		field := "stores." + s.Name
		if len(s.Handles) == 0 {
			errs = append(errs, ValidationError{Field: field + ".handles", Message: "a store must handle at least one identifier", Code: ErrStoreNoHandles})
		}
		for _, id := range s.Handles {
			if len(d.Creators) > 0 && !produced[id] {
				errs = append(errs, ValidationError{
					Field:   field + ".handles",
					Message: fmt.Sprintf("no creator produces %q", id),
					Code:    ErrUnknownIdentifier,
				})
			}
		}
		for _, dep := range s.WaitFor {
			if !storeNames[dep] {
				errs = append(errs, ValidationError{
					Field:   field + ".waitFor",
					Message: fmt.Sprintf("unknown store %q", dep),
					Code:    ErrUnknownWaitFor,
				})
			}
		}
	}

	for _, w := range AnalyzeCycles(d.Stores) {
		if w.Level == "error" {
			errs = append(errs, ValidationError{
				Field:   "stores." + w.Path[0] + ".waitFor",
				Message: w.Message,
				Code:    ErrCyclicWaitFor,
			})
		}
	}

	return errs
}

func validateIdentifier(id, field string) []ValidationError {
	if identifierPattern.MatchString(id) {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("identifier %q must be UPPER_SNAKE_CASE", id),
		Code:    ErrInvalidIdentifier,
	}}
}
