// Package nodelink serializes meshes to Graphviz DOT and renders them.
//
// # Usage
//
//	dot := nodelink.ToDOT(m, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot, "fdp")
//
// # DOT Format
//
// A thinned five-node mesh serializes as:
//
//	graph G {
//	  layout=fdp;
//	  node [shape=ellipse, fontsize=12];
//
//	  0 [node_id="Drone:0", label="Drone:0"];
//	  ...
//
//	  0 -- 2 [weight=5];
//	  ...
//	}
//
// The same text is accepted by the dot command line (see package render) and
// by [RenderSVG], which runs Graphviz compiled to WebAssembly and needs no
// system installation.
package nodelink
