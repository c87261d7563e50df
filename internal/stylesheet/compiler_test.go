package stylesheet

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	out  string
	err  error
	last EngineRequest
}

func (f *fakeEngine) Compile(_ context.Context, req EngineRequest) (string, error) {
	f.last = req
	return f.out, f.err
}

func writeEntry(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCompile_DelegatesToEngine(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir, "scss/main.scss", "$c: red; a { color: $c; }")
	engine := &fakeEngine{out: "a {\n  color: red;\n}\n"}
	extra := filepath.Join(dir, "vendor")

	doc, err := NewCompiler(extra).WithEngine(engine).Compile(context.Background(), entry)
	require.NoError(t, err)

	assert.Equal(t, entry, doc.SourcePath)
	assert.Equal(t, "a {\n  color: red;\n}\n", doc.CSS)
	assert.Equal(t, OutputStyleExpanded, engine.last.OutputStyle)
	assert.Equal(t, []string{filepath.Join(dir, "scss"), extra}, engine.last.LoadPaths)
}

func TestCompile_MissingEntry(t *testing.T) {
	engine := &fakeEngine{}
	entry := filepath.Join(t.TempDir(), "main.scss")

	_, err := NewCompiler().WithEngine(engine).Compile(context.Background(), entry)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, entry, cerr.EntryPath)
	assert.Equal(t, "entry stylesheet not found", cerr.Message)
	assert.Empty(t, engine.last.EntryPath, "engine must not run without an entry file")
}

func TestCompile_EngineFailureIsCompileError(t *testing.T) {
	entry := writeEntry(t, t.TempDir(), "main.scss", "a { color: ")
	engine := &fakeEngine{err: errors.New("Error: expected \"}\".")}

	_, err := NewCompiler().WithEngine(engine).Compile(context.Background(), entry)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, `expected "}"`)
}

func TestCompile_EngineUnavailable(t *testing.T) {
	entry := writeEntry(t, t.TempDir(), "main.scss", "a {}")
	engine := &SassBinaryEngine{Binary: "sass-binary-that-does-not-exist"}

	_, err := NewCompiler().WithEngine(engine).Compile(context.Background(), entry)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.Equal(t, "sass preprocessor not available", cerr.Message)
}

func TestSassBinaryEngine_WhenSassAvailable(t *testing.T) {
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("sass binary not found in PATH; skipping SassBinaryEngine integration test")
	}
	dir := t.TempDir()
	writeEntry(t, dir, "_colors.scss", "$primary: #336699;")
	entry := writeEntry(t, dir, "main.scss", "@use 'colors';\n.header { color: colors.$primary; .title { font-weight: bold; } }\n")

	doc, err := NewCompiler().Compile(context.Background(), entry)
	require.NoError(t, err)
	assert.Contains(t, doc.CSS, ".header .title")
	assert.Contains(t, doc.CSS, "#336699")

	broken := writeEntry(t, dir, "broken.scss", "@import 'missing';\n")
	_, err = NewCompiler().Compile(context.Background(), broken)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, strings.TrimSpace(cerr.Message) != "")
}
