package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultDotPath is the binary looked up in PATH when Graphviz.Path is empty.
const DefaultDotPath = "dot"

// ErrNotInstalled is returned when the dot binary cannot be found.
var ErrNotInstalled = errors.New("graphviz is not installed")

// Formats lists the output formats accepted by [Graphviz.Render].
var Formats = map[string]bool{
	"svg": true,
	"png": true,
	"pdf": true,
}

// ExitError reports a dot process that ran but exited non-zero.
type ExitError struct {
	Status int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("dot exited with status %d", e.Status)
	}
	return fmt.Sprintf("dot exited with status %d: %s", e.Status, msg)
}

// Request describes one invocation of dot.
type Request struct {
	// Format is the -T output format (svg, png or pdf).
	Format string
	// EdgeLabel is applied to every edge with -Elabel. Empty omits the flag.
	EdgeLabel string
}

// Graphviz runs the Graphviz dot binary.
type Graphviz struct {
	// Path is the dot executable. Defaults to DefaultDotPath.
	Path string
}

func (g Graphviz) path() string {
	if g.Path == "" {
		return DefaultDotPath
	}
	return g.Path
}

// Available reports whether the dot binary can be resolved.
func (g Graphviz) Available() bool {
	_, err := exec.LookPath(g.path())
	return err == nil
}

// Args returns the command-line arguments Render passes to dot.
func (r Request) Args(in, out string) []string {
	args := []string{"-T" + r.Format}
	if r.EdgeLabel != "" {
		args = append(args, "-Elabel="+r.EdgeLabel)
	}
	return append(args, in, "-o", out)
}

// Render runs dot on the DOT file at in and writes the result to out.
// A non-zero exit is returned as *ExitError.
func (g Graphviz) Render(ctx context.Context, in, out string, req Request) error {
	if !Formats[req.Format] {
		return fmt.Errorf("unsupported format %q", req.Format)
	}
	bin, err := exec.LookPath(g.path())
	if err != nil {
		return fmt.Errorf("%w (looked for %q). Install with:\n  macOS:  brew install graphviz\n  Linux:  apt install graphviz", ErrNotInstalled, g.path())
	}

	cmd := exec.CommandContext(ctx, bin, req.Args(in, out)...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Status: exitErr.ExitCode(), Stderr: errBuf.String()}
		}
		return fmt.Errorf("run %s: %w", bin, err)
	}
	return nil
}
