package mesh

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidSize is returned by [Complete] when the requested node count
	// is negative.
	ErrInvalidSize = errors.New("node count must not be negative")

	// ErrUnknownNode is returned by [Mesh.AddEdge] when either endpoint is not
	// a node of the mesh.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Mesh.AddEdge] when both endpoints are the
	// same node.
	ErrSelfLoop = errors.New("self-loops are not allowed")

	// ErrDuplicateEdge is returned by [Mesh.AddEdge] when the unordered pair
	// is already connected.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrEdgeNotFound is returned by [Mesh.RemoveEdge] when the two nodes do
	// not share an edge. During thinning this indicates a driver bug, so the
	// removal fails instead of silently doing nothing.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidEdgeEndpoint is returned by [Mesh.Validate] when the
	// adjacency index references a node that does not exist or is not
	// mirrored on the other endpoint.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")
)

// MetaLayout is the graph metadata key holding the layout engine hint
// written to the DOT output.
const MetaLayout = "layout"

// LabelPrefix prefixes the labels of nodes created by [Complete].
const LabelPrefix = "Drone:"

// Metadata stores arbitrary key-value pairs attached to the mesh.
type Metadata map[string]any

// NodeID is an opaque handle to a node. Handles are dense and assigned in
// insertion order starting at 0.
type NodeID int

// Node is a drone in the mesh.
type Node struct {
	ID    NodeID
	Label string
}

// Edge is an undirected link between two nodes. Edges returned by the mesh
// are normalized so that A < B.
type Edge struct {
	A, B   NodeID
	Weight float64
}

// String formats the edge as "a--b".
func (e Edge) String() string { return fmt.Sprintf("%d--%d", e.A, e.B) }

type pair struct{ a, b NodeID }

func key(a, b NodeID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// Mesh is an undirected simple graph. Degrees are answered in O(1) from the
// adjacency sets, so they are always current after a removal.
//
// The zero value is not usable - use [New] or [Complete].
// Mesh is not safe for concurrent use without external synchronization.
type Mesh struct {
	nodes   []Node
	adj     []map[NodeID]struct{}
	weights map[pair]float64
	meta    Metadata
}

// New creates an empty mesh with optional graph-level metadata.
func New(meta Metadata) *Mesh {
	if meta == nil {
		meta = Metadata{}
	}
	return &Mesh{
		weights: make(map[pair]float64),
		meta:    meta,
	}
}

// Complete builds a complete graph of n nodes labeled "Drone:0" to
// "Drone:<n-1>" where every one of the n(n-1)/2 edges carries weight.
// It returns ErrInvalidSize when n is negative.
func Complete(n int, weight float64) (*Mesh, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	m := New(nil)
	m.nodes = make([]Node, 0, n)
	m.adj = make([]map[NodeID]struct{}, 0, n)
	m.weights = make(map[pair]float64, n*(n-1)/2)
	for i := 0; i < n; i++ {
		m.AddNode(fmt.Sprintf("%s%d", LabelPrefix, i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.link(NodeID(i), NodeID(j), weight)
		}
	}
	return m, nil
}

// Meta returns the graph-level metadata map. It is never nil.
func (m *Mesh) Meta() Metadata { return m.meta }

// Layout returns the layout hint stored under [MetaLayout], or "".
func (m *Mesh) Layout() string {
	s, _ := m.meta[MetaLayout].(string)
	return s
}

// SetLayout stores the layout hint used by serialization.
func (m *Mesh) SetLayout(layout string) { m.meta[MetaLayout] = layout }

// AddNode appends a node and returns its handle.
func (m *Mesh) AddNode(label string) NodeID {
	id := NodeID(len(m.nodes))
	m.nodes = append(m.nodes, Node{ID: id, Label: label})
	m.adj = append(m.adj, make(map[NodeID]struct{}))
	return id
}

// AddEdge connects a and b. It rejects unknown endpoints, self-loops and
// pairs that are already connected.
func (m *Mesh) AddEdge(a, b NodeID, weight float64) error {
	if !m.valid(a) || !m.valid(b) {
		return fmt.Errorf("%w: %d--%d", ErrUnknownNode, a, b)
	}
	if a == b {
		return fmt.Errorf("%w: %d", ErrSelfLoop, a)
	}
	if m.HasEdge(a, b) {
		return fmt.Errorf("%w: %d--%d", ErrDuplicateEdge, a, b)
	}
	m.link(a, b, weight)
	return nil
}

func (m *Mesh) link(a, b NodeID, weight float64) {
	m.adj[a][b] = struct{}{}
	m.adj[b][a] = struct{}{}
	m.weights[key(a, b)] = weight
}

// RemoveEdge deletes the edge between a and b, decrementing both degrees by
// one. It returns ErrEdgeNotFound if the nodes are not connected.
func (m *Mesh) RemoveEdge(a, b NodeID) error {
	if !m.HasEdge(a, b) {
		return fmt.Errorf("%w: %d--%d", ErrEdgeNotFound, a, b)
	}
	delete(m.adj[a], b)
	delete(m.adj[b], a)
	delete(m.weights, key(a, b))
	return nil
}

// HasEdge reports whether a and b are connected. The check is symmetric.
func (m *Mesh) HasEdge(a, b NodeID) bool {
	if !m.valid(a) || !m.valid(b) {
		return false
	}
	_, ok := m.adj[a][b]
	return ok
}

// Degree returns the number of edges incident to id, or 0 for an unknown node.
func (m *Mesh) Degree(id NodeID) int {
	if !m.valid(id) {
		return 0
	}
	return len(m.adj[id])
}

// Weight returns the weight of the edge between a and b.
func (m *Mesh) Weight(a, b NodeID) (float64, bool) {
	w, ok := m.weights[key(a, b)]
	return w, ok
}

// Node returns the node with the given handle.
func (m *Mesh) Node(id NodeID) (Node, bool) {
	if !m.valid(id) {
		return Node{}, false
	}
	return m.nodes[id], true
}

// Nodes returns all nodes in handle order. The returned slice is a copy.
func (m *Mesh) Nodes() []Node { return slices.Clone(m.nodes) }

// NodeIDs returns all handles in ascending order.
func (m *Mesh) NodeIDs() []NodeID {
	ids := make([]NodeID, len(m.nodes))
	for i := range m.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// Neighbors returns the nodes adjacent to id in ascending order.
func (m *Mesh) Neighbors(id NodeID) []NodeID {
	if !m.valid(id) {
		return nil
	}
	return slices.Sorted(maps.Keys(m.adj[id]))
}

// Edges returns all edges sorted by (A, B).
func (m *Mesh) Edges() []Edge {
	edges := make([]Edge, 0, len(m.weights))
	for k, w := range m.weights {
		edges = append(edges, Edge{A: k.a, B: k.b, Weight: w})
	}
	slices.SortFunc(edges, func(x, y Edge) int {
		if x.A != y.A {
			return int(x.A - y.A)
		}
		return int(x.B - y.B)
	})
	return edges
}

// NodeCount returns the number of nodes.
func (m *Mesh) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of edges.
func (m *Mesh) EdgeCount() int { return len(m.weights) }

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := New(maps.Clone(m.meta))
	c.nodes = slices.Clone(m.nodes)
	c.adj = make([]map[NodeID]struct{}, len(m.adj))
	for i, set := range m.adj {
		c.adj[i] = maps.Clone(set)
	}
	c.weights = maps.Clone(m.weights)
	return c
}

// Validate checks that the adjacency sets and the edge table agree: every
// edge is mirrored on both endpoints, no node links to itself, and every
// endpoint exists.
func (m *Mesh) Validate() error {
	half := 0
	for i, set := range m.adj {
		a := NodeID(i)
		for b := range set {
			if !m.valid(b) || a == b {
				return fmt.Errorf("%w: %d--%d", ErrInvalidEdgeEndpoint, a, b)
			}
			if _, ok := m.adj[b][a]; !ok {
				return fmt.Errorf("%w: %d--%d not mirrored", ErrInvalidEdgeEndpoint, a, b)
			}
			if _, ok := m.weights[key(a, b)]; !ok {
				return fmt.Errorf("%w: %d--%d has no weight", ErrInvalidEdgeEndpoint, a, b)
			}
			half++
		}
	}
	if half != 2*len(m.weights) {
		return fmt.Errorf("%w: %d adjacency entries for %d edges", ErrInvalidEdgeEndpoint, half, len(m.weights))
	}
	return nil
}

func (m *Mesh) valid(id NodeID) bool { return id >= 0 && int(id) < len(m.nodes) }

// Stats summarizes the degree distribution of a mesh.
type Stats struct {
	Nodes int
	Edges int
	Min   int
	Max   int
	Mean  float64
}

// DegreeStats computes the degree distribution. All fields are zero for an
// empty mesh.
func (m *Mesh) DegreeStats() Stats {
	s := Stats{Nodes: len(m.nodes), Edges: len(m.weights)}
	if s.Nodes == 0 {
		return s
	}
	s.Min = len(m.adj[0])
	total := 0
	for _, set := range m.adj {
		d := len(set)
		s.Min = min(s.Min, d)
		s.Max = max(s.Max, d)
		total += d
	}
	s.Mean = float64(total) / float64(s.Nodes)
	return s
}
