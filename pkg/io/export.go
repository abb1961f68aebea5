package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dronemesh/pkg/mesh"
)

type document struct {
	Meta  mesh.Metadata `json:"meta,omitempty"`
	Nodes []node        `json:"nodes"`
	Edges []edge        `json:"edges"`
}

type node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type edge struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight"`
}

// WriteJSON encodes a mesh as JSON and writes it to w.
// Nodes are written in handle order and edges sorted by endpoint, so equal
// meshes always produce identical output.
func WriteJSON(m *mesh.Mesh, w io.Writer) error {
	nodes := m.Nodes()
	edges := m.Edges()
	out := document{
		Meta:  m.Meta(),
		Nodes: make([]node, len(nodes)),
		Edges: make([]edge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = node{ID: int(n.ID), Label: n.Label}
	}
	for i, e := range edges {
		out.Edges[i] = edge{A: int(e.A), B: int(e.B), Weight: e.Weight}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a mesh to a JSON file at path.
func ExportJSON(m *mesh.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}
