package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid" yaml:"valid"`
	Creators int                        `json:"creators" yaml:"creators"`
	Stores   int                        `json:"stores" yaml:"stores"`
	Errors   []compiler.ValidationError `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate CUE creator and store declarations",
		Long: `Validate the CUE action creator and store declarations in a directory.

Checks that every creator has a source and typed methods, that identifiers
are UPPER_SNAKE_CASE and unique, that payload schemas compile, that every
handled identifier is produced by some creator, and that waitFor references
name declared stores without forming an unavoidable cycle.

Exit codes:
  0 - Declarations are valid (cycle warnings may still be printed)
  1 - Validation failed
  2 - Command error (missing directory, unparseable CUE)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, _, err := ValidateDir(dir)
	if err != nil {
		code, message, _ := describeLoadError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	formatter.VerboseLog("Validated %d creator(s) and %d store(s) in %s", result.Creators, result.Stores, dir)

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateDir loads and validates the declarations in dir. Compile errors in
// a declaration are reported as validation errors; the returned error is set
// only when the directory cannot be loaded at all. The declarations are nil
// when they failed to compile.
func ValidateDir(dir string) (*ValidationResult, *compiler.Declarations, error) {
	loaded, err := LoadDeclarations(dir)
	if err != nil {
		code, message, pos := describeLoadError(err)
		if !strings.HasPrefix(code, "E1") {
			return nil, nil, err
		}
		field := "cue"
		if pos.IsValid() {
			field = fmt.Sprintf("%s:%d", pos.Filename(), pos.Line())
		}
		errs := []compiler.ValidationError{{Field: field, Message: message, Code: code}}
		return &ValidationResult{Valid: false, Errors: errs}, nil, nil
	}

	decls := loaded.Declarations
	result := &ValidationResult{
		Creators: len(decls.Creators),
		Stores:   len(decls.Stores),
		Errors:   compiler.Validate(decls),
	}
	for _, w := range compiler.AnalyzeCycles(decls.Stores) {
		if w.Level != "error" {
			result.Warnings = append(result.Warnings, w)
		}
	}
	result.Valid = len(result.Errors) == 0
	return result, decls, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Structured() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
	fmt.Fprintf(w, "✓ All declarations valid (%d creator(s), %d store(s))\n", result.Creators, result.Stores)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Structured() {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, err := range errs {
		fmt.Fprintf(w, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
	return failure
}
