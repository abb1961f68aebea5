package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/matzehuels/dronemesh/pkg/errors"
	meshio "github.com/matzehuels/dronemesh/pkg/io"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/render"
	"github.com/matzehuels/dronemesh/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// A failure in one format aborts the call; artifacts already produced are
// discarded.
func Render(ctx context.Context, m *mesh.Mesh, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(m, opts.dotOptions())
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			var buf bytes.Buffer
			err = meshio.WriteJSON(m, &buf)
			data = buf.Bytes()
		case FormatSVG, FormatPNG, FormatPDF:
			if opts.Engine == EngineEmbedded {
				data, err = nodelink.RenderSVG(ctx, dot, opts.Layout)
			} else {
				data, err = renderExternal(ctx, dot, format, opts)
			}
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, renderError(format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// dotOptions returns the serialization options. With the external engine the
// edge label is passed to dot on the command line, so it is kept out of the
// DOT text.
func (o *Options) dotOptions() nodelink.Options {
	opts := nodelink.Options{Layout: o.Layout, Detailed: o.Detailed}
	if o.Engine == EngineEmbedded {
		opts.EdgeLabel = o.EdgeLabel
	}
	return opts
}

// renderExternal writes dot to a scratch directory and runs the Graphviz
// binary on it.
func renderExternal(ctx context.Context, dot, format string, opts Options) ([]byte, error) {
	dir, err := os.MkdirTemp("", "dronemesh-render-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "output.dot")
	out := filepath.Join(dir, "output."+format)
	if err := os.WriteFile(in, []byte(dot), 0o644); err != nil {
		return nil, err
	}

	gv := render.Graphviz{Path: opts.DotPath}
	if err := gv.Render(ctx, in, out, render.Request{Format: format, EdgeLabel: opts.EdgeLabel}); err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}

// renderError marks everything except cancellation as RENDER_FAILED. A
// missing binary and a non-zero exit stay reachable through errors.Is/As.
func renderError(format string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
}
