package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dronemesh/pkg/mesh"
)

// ErrNodeOrder is returned when node IDs in the input are not 0, 1, 2, ...
var ErrNodeOrder = errors.New("node ids must be dense and in order")

// ReadJSON decodes a JSON mesh from r.
//
// ReadJSON returns an error if the JSON is malformed, if node IDs are not
// dense and ordered, or if an edge violates the mesh invariants (unknown
// endpoint, self-loop, duplicate). Errors carry the offending node or edge;
// use errors.Is with the sentinels from package mesh to inspect them.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*mesh.Mesh, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	m := mesh.New(data.Meta)
	for i, n := range data.Nodes {
		if n.ID != i {
			return nil, fmt.Errorf("node %d at position %d: %w", n.ID, i, ErrNodeOrder)
		}
		m.AddNode(n.Label)
	}
	for _, e := range data.Edges {
		if err := m.AddEdge(mesh.NodeID(e.A), mesh.NodeID(e.B), e.Weight); err != nil {
			return nil, fmt.Errorf("edge %d--%d: %w", e.A, e.B, err)
		}
	}
	return m, nil
}

// ImportJSON reads a JSON file at path and returns the decoded mesh.
func ImportJSON(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
