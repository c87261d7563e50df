package stylesheet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/csspublisher/internal/logfields"
)

// OutputStyleExpanded is the only output style the pipeline requests;
// minification happens later in the finisher.
const OutputStyleExpanded = "expanded"

// EngineRequest describes a single compilation.
type EngineRequest struct {
	EntryPath   string
	OutputStyle string
	LoadPaths   []string
}

// Engine abstracts the SCSS preprocessor so the external binary can be
// swapped for an in-process implementation or a test double.
type Engine interface {
	Compile(ctx context.Context, req EngineRequest) (string, error)
}

// SassBinaryEngine invokes the dart-sass executable.
type SassBinaryEngine struct {
	// Binary overrides the executable name; defaults to "sass".
	Binary string
}

func (e *SassBinaryEngine) binary() string {
	if e.Binary == "" {
		return "sass"
	}
	return e.Binary
}

func (e *SassBinaryEngine) Compile(ctx context.Context, req EngineRequest) (string, error) {
	bin, err := exec.LookPath(e.binary())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	style := req.OutputStyle
	if style == "" {
		style = OutputStyleExpanded
	}
	args := []string{"--style=" + style, "--no-source-map", "--no-color"}
	for _, p := range req.LoadPaths {
		args = append(args, "--load-path="+p)
	}
	args = append(args, req.EntryPath)

	// #nosec G204 -- binary resolved via LookPath, arguments are not shell-interpreted
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.DebugContext(ctx, "Invoking sass", logfields.Path(req.EntryPath), slog.String("binary", bin))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	if warn := strings.TrimSpace(stderr.String()); warn != "" {
		slog.WarnContext(ctx, "sass reported warnings", logfields.Path(req.EntryPath), slog.String("output", warn))
	}
	return stdout.String(), nil
}
