package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one redis database without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MeshKey generates a prefixed mesh key.
func (k *ScopedKeyer) MeshKey(opts MeshKeyOpts) string {
	return k.prefix + k.inner.MeshKey(opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(meshHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(meshHash, opts)
}

// RunKey generates a prefixed run key.
func (k *ScopedKeyer) RunKey(runID string) string {
	return k.prefix + k.inner.RunKey(runID)
}
