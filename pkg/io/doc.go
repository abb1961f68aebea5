// Package io provides JSON import and export for drone meshes.
//
// # Overview
//
// A thinned mesh is usually rendered to DOT or SVG, but the JSON form is what
// the HTTP API returns and what the render command accepts when re-rendering
// a stored topology without thinning it again.
//
// # JSON Format
//
//	{
//	  "meta":  {"layout": "fdp"},
//	  "nodes": [
//	    {"id": 0, "label": "Drone:0"},
//	    {"id": 1, "label": "Drone:1"},
//	    {"id": 2, "label": "Drone:2"}
//	  ],
//	  "edges": [
//	    {"a": 0, "b": 1, "weight": 5},
//	    {"a": 1, "b": 2, "weight": 5}
//	  ]
//	}
//
// Node IDs must be dense and listed in order (0, 1, 2, ...), matching the
// handles assigned by [mesh.Mesh.AddNode]. Edges are undirected; the export
// always writes them with a < b and sorted.
//
// # Import
//
// Use [ImportJSON] to read a mesh from a file path, or [ReadJSON] to read from
// any io.Reader. Both reject duplicate or out-of-order node IDs, self-loops,
// duplicate edges and edges referencing unknown nodes.
//
// # Export
//
// Use [ExportJSON] to write a mesh to a file, or [WriteJSON] to write to any
// io.Writer. Export followed by import reproduces the mesh exactly.
package io
