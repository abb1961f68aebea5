// Package mesh provides the undirected graph store behind drone meshes.
//
// # Overview
//
// A [Mesh] holds nodes (drones) identified by dense integer handles and the
// undirected weighted links between them. It answers degree and adjacency
// queries in constant time and supports edge removal, which is the only
// mutation performed while thinning a mesh.
//
// # Basic Usage
//
// Build a complete graph with [Complete], then query or thin it:
//
//	m, err := mesh.Complete(5, 5)
//	if err != nil {
//	    return err
//	}
//	m.Degree(0)        // 4
//	m.HasEdge(0, 3)    // true
//	_ = m.RemoveEdge(0, 3)
//	m.Degree(0)        // 3
//
// Meshes read from disk are assembled with [New], [Mesh.AddNode] and
// [Mesh.AddEdge], which enforce the simple-graph invariants: no self-loops,
// no duplicate edges, endpoints must exist.
//
// # Ordering
//
// [Mesh.Nodes] returns nodes in handle order and [Mesh.Edges] returns edges
// sorted by their normalized endpoints, so everything derived from a mesh
// (priority structures, DOT output, cache keys) is deterministic.
//
// # Concurrency
//
// Mesh instances are not safe for concurrent use. Thinning assumes a single
// owner mutating the mesh; share one across goroutines only behind a lock.
package mesh
