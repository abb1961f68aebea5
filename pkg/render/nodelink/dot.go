package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dronemesh/pkg/mesh"
)

// DefaultLayout is used when neither Options nor the mesh carry a layout hint.
const DefaultLayout = "fdp"

// Options configures DOT serialization.
type Options struct {
	// Layout overrides the mesh's layout hint.
	Layout string
	// EdgeLabel, when set, is written as the label of every edge.
	EdgeLabel string
	// Detailed appends the node's degree to its label.
	Detailed bool
}

func (o Options) layout(m *mesh.Mesh) string {
	if o.Layout != "" {
		return o.Layout
	}
	if l := m.Layout(); l != "" {
		return l
	}
	return DefaultLayout
}

// ToDOT converts a mesh to an undirected Graphviz graph.
//
// The graph carries a layout attribute, every node a node_id attribute with
// its label and every edge a weight attribute. Nodes are written in handle
// order and edges sorted, so the output is byte-for-byte reproducible.
func ToDOT(m *mesh.Mesh, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", opts.layout(m))
	buf.WriteString("  node [shape=ellipse, fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range m.Nodes() {
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(fmtNodeAttrs(m, n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range m.Edges() {
		fmt.Fprintf(&buf, "  %d -- %d [%s];\n", e.A, e.B, strings.Join(fmtEdgeAttrs(e, opts.EdgeLabel), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtNodeAttrs(m *mesh.Mesh, n mesh.Node, detailed bool) []string {
	label := n.Label
	if detailed {
		label = fmt.Sprintf("%s\ndegree: %d", n.Label, m.Degree(n.ID))
	}
	return []string{"node_id=" + quote(n.Label), "label=" + quote(label)}
}

// quote writes s as a DOT double-quoted string. DOT knows only the \" and \\
// escapes, plus \n as a label line break; other control characters are
// dropped.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func fmtEdgeAttrs(e mesh.Edge, label string) []string {
	attrs := []string{"weight=" + strconv.FormatFloat(e.Weight, 'g', -1, 64)}
	if label != "" {
		attrs = append(attrs, "label="+quote(label))
	}
	return attrs
}

// WriteFile serializes m with [ToDOT] and writes the result to path.
func WriteFile(path string, m *mesh.Mesh, opts Options) error {
	if err := os.WriteFile(path, []byte(ToDOT(m, opts)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSVG renders DOT source to SVG in-process with the embedded Graphviz.
// layout selects the engine (fdp, neato, dot, ...); empty means DefaultLayout.
func RenderSVG(ctx context.Context, dot, layout string) ([]byte, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(layout))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
