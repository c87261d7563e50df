package stylesheet

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/csspublisher/internal/logfields"
)

// CompiledDocument is the raw CSS produced from an entry file.
type CompiledDocument struct {
	SourcePath string
	CSS        string
}

// Compiler turns an entry stylesheet into CSS using an Engine.
type Compiler struct {
	engine    Engine
	loadPaths []string
}

// NewCompiler returns a compiler backed by the sass binary. loadPaths are
// extra import roots; the entry file's own directory is always searched
// first.
func NewCompiler(loadPaths ...string) *Compiler {
	return &Compiler{engine: &SassBinaryEngine{}, loadPaths: loadPaths}
}

// WithEngine replaces the compilation engine.
func (c *Compiler) WithEngine(e Engine) *Compiler {
	if e != nil {
		c.engine = e
	}
	return c
}

// Compile compiles entryPath with expanded output. Imports are resolved
// relative to the entry file's directory and the configured load paths.
func (c *Compiler) Compile(ctx context.Context, entryPath string) (*CompiledDocument, error) {
	info, err := os.Stat(entryPath)
	if err != nil {
		msg := "entry stylesheet not readable"
		if errors.Is(err, os.ErrNotExist) {
			msg = "entry stylesheet not found"
		}
		return nil, &CompileError{EntryPath: entryPath, Message: msg, Err: err}
	}
	if info.IsDir() {
		return nil, &CompileError{EntryPath: entryPath, Message: "entry stylesheet is a directory"}
	}

	req := EngineRequest{
		EntryPath:   entryPath,
		OutputStyle: OutputStyleExpanded,
		LoadPaths:   c.resolveLoadPaths(entryPath),
	}

	start := time.Now()
	out, err := c.engine.Compile(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "Stylesheet compilation failed", logfields.Path(entryPath), logfields.Error(err))
		return nil, &CompileError{EntryPath: entryPath, Message: compileMessage(err), Err: err}
	}
	slog.InfoContext(ctx, "Stylesheet compiled",
		logfields.Path(entryPath),
		slog.Int("bytes", len(out)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return &CompiledDocument{SourcePath: entryPath, CSS: out}, nil
}

func (c *Compiler) resolveLoadPaths(entryPath string) []string {
	paths := []string{filepath.Dir(entryPath)}
	for _, p := range c.loadPaths {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func compileMessage(err error) string {
	if errors.Is(err, ErrEngineUnavailable) {
		return "sass preprocessor not available"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "compilation failed"
	}
	return msg
}
