package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/strictflux/internal/compiler"
)

const validDecls = `
package test

creators: CounterActions: {
	source: "VIEW_ACTION"
	methods: {
		increment: {
			type: "COUNTER_INCREMENT"
			payload: {by: int & >0}
		}
		reset: type: "COUNTER_RESET"
	}
}

stores: {
	CounterStore: handles: ["COUNTER_INCREMENT", "COUNTER_RESET"]
	HistoryStore: {
		handles: ["COUNTER_INCREMENT"]
		waitFor: ["CounterStore"]
	}
}
`

func writeCUE(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "decls.cue"), []byte(content), 0o644))
	return dir
}

func executeCommand(t *testing.T, cmdFn func(*RootOptions) *cobra.Command, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := cmdFn(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidDeclarations(t *testing.T) {
	dir := writeCUE(t, validDecls)

	out, err := executeCommand(t, NewValidateCommand, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All declarations valid (1 creator(s), 2 store(s))")
}

func TestValidateValidDeclarationsJSON(t *testing.T) {
	dir := writeCUE(t, validDecls)

	out, err := executeCommand(t, NewValidateCommand, "json", dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Creators)
	assert.Equal(t, 2, resp.Data.Stores)
}

func TestValidateExampleTodoDeclarations(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("..", "example", "todo", "todo.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "todo.cue"), append([]byte("package todo\n\n"), src...), 0o644))

	out, err := executeCommand(t, NewValidateCommand, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All declarations valid")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := executeCommand(t, NewValidateCommand, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := executeCommand(t, NewValidateCommand, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateInvalidDeclarations(t *testing.T) {
	dir := writeCUE(t, `
package test

creators: Bad: {
	source: "view_action"
	methods: go: type: "GO"
}

stores: Lonely: {
	handles: ["NEVER_PRODUCED"]
	waitFor: ["Missing"]
}
`)

	out, err := executeCommand(t, NewValidateCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrInvalidIdentifier)
	assert.Contains(t, out, compiler.ErrUnknownIdentifier)
	assert.Contains(t, out, compiler.ErrUnknownWaitFor)
}

func TestValidateUnavoidableCycle(t *testing.T) {
	dir := writeCUE(t, `
package test

creators: Ping: {
	source: "VIEW_ACTION"
	methods: ping: type: "PING"
}

stores: {
	A: {handles: ["PING"], waitFor: ["B"]}
	B: {handles: ["PING"], waitFor: ["A"]}
}
`)

	out, err := executeCommand(t, NewValidateCommand, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *ResponseError   `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Data.Valid)

	var codes []string
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, compiler.ErrCyclicWaitFor)
}

func TestValidateConditionalCycleWarns(t *testing.T) {
	dir := writeCUE(t, `
package test

creators: Both: {
	source: "VIEW_ACTION"
	methods: {
		a: type: "ONLY_A"
		b: type: "ONLY_B"
	}
}

stores: {
	A: {handles: ["ONLY_A"], waitFor: ["B"]}
	B: {handles: ["ONLY_B"], waitFor: ["A"]}
}
`)

	out, err := executeCommand(t, NewValidateCommand, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "✓ All declarations valid")
}

func TestCompileWritesJSON(t *testing.T) {
	dir := writeCUE(t, validDecls)
	output := filepath.Join(t.TempDir(), "out", "decls.json")

	out, err := executeCommand(t, NewCompileCommand, "text", dir, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 1 creator(s) and 2 store(s)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var decls compiler.Declarations
	require.NoError(t, json.Unmarshal(data, &decls))
	require.Len(t, decls.Creators, 1)
	c, ok := decls.Creator("CounterActions")
	require.True(t, ok)
	assert.Equal(t, "VIEW_ACTION", c.Source)
	assert.Len(t, c.Methods, 2)
	require.Len(t, decls.Stores, 2)
}

func TestCompileToStdout(t *testing.T) {
	dir := writeCUE(t, validDecls)

	out, err := executeCommand(t, NewCompileCommand, "text", dir)
	require.NoError(t, err)

	var decls compiler.Declarations
	require.NoError(t, json.Unmarshal([]byte(out), &decls))
	assert.Len(t, decls.Stores, 2)
}

func TestCompileRefusesInvalidDeclarations(t *testing.T) {
	dir := writeCUE(t, `
package test

stores: Lonely: handles: []
`)
	output := filepath.Join(t.TempDir(), "decls.json")

	_, err := executeCommand(t, NewCompileCommand, "text", dir, "-o", output)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NoFileExists(t, output)
}
