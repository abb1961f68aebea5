package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeDot writes a shell script standing in for dot. It records its
// arguments into the -o target and exits with status.
func fakeDot(t *testing.T, status int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
echo "$@" > "$out"
`
	if status != 0 {
		script += "echo 'Error: syntax error in line 1' >&2\nexit " + strconv.Itoa(status) + "\n"
	}
	path := filepath.Join(t.TempDir(), "dot")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRequestArgs(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{"with label", Request{Format: "svg", EdgeLabel: "5"}, []string{"-Tsvg", "-Elabel=5", "in.dot", "-o", "out.svg"}},
		{"no label", Request{Format: "png"}, []string{"-Tpng", "in.dot", "-o", "out.svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.req.Args("in.dot", "out.svg")); diff != "" {
				t.Errorf("Args() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGraphvizRender(t *testing.T) {
	gv := Graphviz{Path: fakeDot(t, 0)}
	out := filepath.Join(t.TempDir(), "output.svg")

	if err := gv.Render(context.Background(), "output.dot", out, Request{Format: "svg", EdgeLabel: "5"}); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "-Tsvg -Elabel=5 output.dot -o " + out; strings.TrimSpace(string(got)) != want {
		t.Errorf("dot called with %q, want %q", strings.TrimSpace(string(got)), want)
	}
}

func TestGraphvizRenderExitStatus(t *testing.T) {
	gv := Graphviz{Path: fakeDot(t, 2)}
	out := filepath.Join(t.TempDir(), "output.svg")

	err := gv.Render(context.Background(), "output.dot", out, Request{Format: "svg"})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Render() error = %v, want *ExitError", err)
	}
	if exitErr.Status != 2 {
		t.Errorf("Status = %d, want 2", exitErr.Status)
	}
	if !strings.Contains(exitErr.Error(), "syntax error") {
		t.Errorf("Error() = %q, want stderr included", exitErr.Error())
	}
}

func TestGraphvizNotInstalled(t *testing.T) {
	gv := Graphviz{Path: filepath.Join(t.TempDir(), "missing-dot")}
	if gv.Available() {
		t.Error("Available() = true for a missing binary")
	}
	err := gv.Render(context.Background(), "in.dot", "out.svg", Request{Format: "svg"})
	if !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Render() error = %v, want ErrNotInstalled", err)
	}
}

func TestGraphvizUnsupportedFormat(t *testing.T) {
	err := Graphviz{}.Render(context.Background(), "in.dot", "out.gif", Request{Format: "gif"})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("Render() error = %v, want unsupported format", err)
	}
}

func TestExitErrorMessage(t *testing.T) {
	if got := (&ExitError{Status: 1}).Error(); got != "dot exited with status 1" {
		t.Errorf("Error() = %q", got)
	}
}
