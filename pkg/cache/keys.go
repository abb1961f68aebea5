package cache

import "strings"

// Keyer generates cache keys.
type Keyer interface {
	// MeshKey identifies a thinned mesh by the inputs that produced it.
	MeshKey(opts MeshKeyOpts) string
	// ArtifactKey identifies a rendered artifact of a mesh.
	ArtifactKey(meshHash string, opts ArtifactKeyOpts) string
	// RunKey identifies a run stored by the HTTP API.
	RunKey(runID string) string
}

// MeshKeyOpts holds every input that influences the thinned topology.
type MeshKeyOpts struct {
	Nodes      int     `json:"nodes"`
	Percentage int     `json:"percentage"`
	Weight     float64 `json:"weight"`
	FloorMode  string  `json:"floor_mode"`
}

// ArtifactKeyOpts holds the render options of an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Layout    string `json:"layout"`
	Engine    string `json:"engine"`
	EdgeLabel string `json:"edge_label,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MeshKey returns "mesh:<sha256>".
func (DefaultKeyer) MeshKey(opts MeshKeyOpts) string {
	return hashKey("mesh", opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(meshHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", meshHash, opts)
}

// RunKey returns "run:<id>". Run IDs are already unique, so they are not hashed.
func (DefaultKeyer) RunKey(runID string) string {
	return "run:" + strings.ToLower(runID)
}
