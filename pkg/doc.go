// Package pkg provides the libraries behind dronemesh.
//
// # Overview
//
// dronemesh builds a fully connected network of N drones and thins it: edges
// are removed one at a time, always between the highest-degree node and its
// nearest still-connected neighbor in degree order, until removing another
// edge would take a node below the floor N*P/100. The result is a sparser
// topology that keeps every drone reasonably connected.
//
// # Architecture
//
//	[mesh] complete graph of N nodes
//	     ↓
//	[mesh/thin] edge thinning, driven by [mesh/rank]
//	     ↓
//	[render/nodelink] DOT serialization
//	     ↓
//	[render/nodelink] embedded Graphviz, or [render] external dot
//	     ↓
//	DOT/SVG/PNG/PDF/JSON output
//
// [pipeline] runs these stages with caching ([cache]) and is shared by the
// CLI and the HTTP API. [config] reads the TOML configuration file, [io]
// reads and writes meshes as JSON, [errors] defines the coded errors both
// front ends report, and [observability] exposes hooks for instrumentation.
//
// # Quick Start
//
//	m, _ := mesh.Complete(10, 5)
//	res, _ := thin.Thin(m, thin.Floor(10, 40))
//	fmt.Println(len(res.Removed), "edges removed")
//	dot := nodelink.ToDOT(m, nodelink.Options{})
//
// [mesh]: github.com/matzehuels/dronemesh/pkg/mesh
// [mesh/thin]: github.com/matzehuels/dronemesh/pkg/mesh/thin
// [mesh/rank]: github.com/matzehuels/dronemesh/pkg/mesh/rank
// [render]: github.com/matzehuels/dronemesh/pkg/render
// [render/nodelink]: github.com/matzehuels/dronemesh/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/dronemesh/pkg/pipeline
// [cache]: github.com/matzehuels/dronemesh/pkg/cache
// [config]: github.com/matzehuels/dronemesh/pkg/config
// [io]: github.com/matzehuels/dronemesh/pkg/io
// [errors]: github.com/matzehuels/dronemesh/pkg/errors
// [observability]: github.com/matzehuels/dronemesh/pkg/observability
package pkg
