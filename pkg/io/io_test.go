package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
)

func TestRoundTrip(t *testing.T) {
	m, err := mesh.Complete(6, 5)
	if err != nil {
		t.Fatal(err)
	}
	m.SetLayout("fdp")
	if _, err := thin.Thin(m, thin.Floor(6, 50)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteJSON(m, &buf); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}

	if diff := cmp.Diff(m.Nodes(), got.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(m.Edges(), got.Edges()); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if got.Layout() != "fdp" {
		t.Errorf("Layout() = %q, want fdp", got.Layout())
	}
}

func TestWriteJSONDeterministic(t *testing.T) {
	encode := func() string {
		m, _ := mesh.Complete(4, 5)
		var buf bytes.Buffer
		if err := WriteJSON(m, &buf); err != nil {
			t.Fatal(err)
		}
		return buf.String()
	}
	if a, b := encode(), encode(); a != b {
		t.Errorf("output differs between runs:\n%s\n%s", a, b)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{
			name:  "self loop",
			input: `{"nodes":[{"id":0},{"id":1}],"edges":[{"a":1,"b":1,"weight":5}]}`,
			want:  mesh.ErrSelfLoop,
		},
		{
			name:  "duplicate edge",
			input: `{"nodes":[{"id":0},{"id":1}],"edges":[{"a":0,"b":1},{"a":1,"b":0}]}`,
			want:  mesh.ErrDuplicateEdge,
		},
		{
			name:  "unknown node",
			input: `{"nodes":[{"id":0}],"edges":[{"a":0,"b":3}]}`,
			want:  mesh.ErrUnknownNode,
		},
		{
			name:  "sparse ids",
			input: `{"nodes":[{"id":0},{"id":2}],"edges":[]}`,
			want:  ErrNodeOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadJSON() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadJSONMalformed(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{"nodes":`)); err == nil {
		t.Error("ReadJSON() should fail on truncated input")
	}
}

func TestExportImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.json")
	m, _ := mesh.Complete(3, 2.5)

	if err := ExportJSON(m, path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	if got.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", got.EdgeCount())
	}
	if w, _ := got.Weight(0, 2); w != 2.5 {
		t.Errorf("Weight(0, 2) = %v, want 2.5", w)
	}
}

func TestImportJSONMissing(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ImportJSON() error = %v, want os.ErrNotExist", err)
	}
}
