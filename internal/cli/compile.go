package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompileResult holds compilation results.
type CompileResult struct {
	Creators int    `json:"creators" yaml:"creators"`
	Stores   int    `json:"stores" yaml:"stores"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <dir>",
		Short: "Compile CUE declarations to JSON",
		Long: `Compile the CUE creator and store declarations in a directory and write
the result as JSON. The output can be loaded by applications that build
their action creators at runtime.

Declarations are validated first; nothing is written if validation fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, decls, err := ValidateDir(dir)
	if err != nil {
		code, message, _ := describeLoadError(err)
		_ = formatter.Error(code, message, nil)
		return WrapExitError(ExitCommandError, "failed to load declarations", err)
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	data, err := marshalDeclarations(decls)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to encode declarations", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := writeFileAtomic(opts.Output, data); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	formatter.VerboseLog("Wrote %s", opts.Output)

	compiled := CompileResult{
		Creators: result.Creators,
		Stores:   result.Stores,
		Output:   opts.Output,
	}
	if formatter.Structured() {
		return formatter.Success(compiled)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", warn.Message)
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d creator(s) and %d store(s) to %s\n",
		compiled.Creators, compiled.Stores, compiled.Output)
	return nil
}

// marshalDeclarations encodes decls as indented JSON.
func marshalDeclarations(decls *compiler.Declarations) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(decls); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".strictflux-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
