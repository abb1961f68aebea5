// Package render drives the external Graphviz toolchain.
//
// # Overview
//
// A serialized mesh (see [nodelink.ToDOT]) is turned into an image either
// in-process with [nodelink.RenderSVG] or by running the Graphviz `dot`
// binary through [Graphviz]. The external path matches what operators get
// from the command line:
//
//	dot -Tsvg -Elabel=5 output.dot -o output.svg
//
// The exit status of the process is reported to the caller as an
// [*ExitError]. Failures are never retried; the DOT input is left in place so
// it can be rendered by hand.
//
// # Usage
//
//	gv := render.Graphviz{Path: "dot"}
//	err := gv.Render(ctx, "output.dot", "output.svg", render.Request{
//	    Format:    "svg",
//	    EdgeLabel: "5",
//	})
//
// [nodelink.ToDOT]: github.com/matzehuels/dronemesh/pkg/render/nodelink.ToDOT
// [nodelink.RenderSVG]: github.com/matzehuels/dronemesh/pkg/render/nodelink.RenderSVG
package render
