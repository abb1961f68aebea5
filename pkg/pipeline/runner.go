package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/dronemesh/pkg/cache"
	meshio "github.com/matzehuels/dronemesh/pkg/io"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
	"github.com/matzehuels/dronemesh/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedThin is the cache representation of a thinned mesh.
type cachedThin struct {
	Mesh   json.RawMessage `json:"mesh"`
	Result *thin.Result    `json:"result"`
}

// Execute runs the complete build → thin → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1+2: Build and thin
	thinStart := time.Now()
	m, res, thinHit, err := r.ThinWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	// Thinning cannot be interrupted, so a cancelled caller is noticed here
	// before rendering starts.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Mesh = m
	result.Thin = res
	result.Stats.ThinTime = time.Since(thinStart)
	result.CacheInfo.ThinHit = thinHit

	ds := m.DegreeStats()
	result.Stats.Nodes = ds.Nodes
	result.Stats.EdgesBefore = res.EdgesBefore
	result.Stats.EdgesAfter = res.EdgesAfter
	result.Stats.Floor = res.Floor
	result.Stats.MinDegree = ds.Min
	result.Stats.MaxDegree = ds.Max

	if data, err := meshJSON(m); err == nil {
		result.MeshHash = cache.Hash(data)
	}

	r.Logger.Info("thinned mesh",
		"nodes", ds.Nodes,
		"removed", len(res.Removed),
		"edges", res.EdgesAfter,
		"reason", res.Reason,
		"duration", result.Stats.ThinTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ThinWithCacheInfo builds and thins a mesh with caching and returns cache hit info.
func (r *Runner) ThinWithCacheInfo(ctx context.Context, opts Options) (*mesh.Mesh, *thin.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForThin(); err != nil {
		return nil, nil, false, err
	}

	cacheKey := r.Keyer.MeshKey(opts.MeshKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if m, res, ok := r.loadThin(ctx, cacheKey); ok {
			if opts.Layout != "" {
				m.SetLayout(opts.Layout)
			}
			observability.Cache().OnCacheHit(ctx, "mesh")
			return m, res, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "mesh")
	}

	observability.Pipeline().OnThinStart(ctx, opts.Nodes, opts.Floor())
	start := time.Now()
	m, res, err := Thin(opts)
	if err != nil {
		observability.Pipeline().OnThinComplete(ctx, 0, "", time.Since(start), err)
		return nil, nil, false, err
	}
	observability.Pipeline().OnThinComplete(ctx, len(res.Removed), res.Reason.String(), time.Since(start), nil)

	if data, err := meshJSON(m); err == nil {
		if entry, err := json.Marshal(cachedThin{Mesh: data, Result: res}); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, entry, cache.TTLMesh); err != nil {
				r.Logger.Warn("cache write failed", "key", cacheKey, "error", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "mesh", len(entry))
			}
		}
	}

	return m, res, false, nil
}

func (r *Runner) loadThin(ctx context.Context, key string) (*mesh.Mesh, *thin.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
		return nil, nil, false
	}
	if !hit {
		return nil, nil, false
	}
	var entry cachedThin
	if err := json.Unmarshal(data, &entry); err != nil || entry.Result == nil {
		return nil, nil, false
	}
	m, err := meshio.ReadJSON(bytes.NewReader(entry.Mesh))
	if err != nil {
		return nil, nil, false
	}
	return m, entry.Result, true
}

// Thin is a convenience wrapper that calls ThinWithCacheInfo and discards the cache hit info.
func (r *Runner) Thin(ctx context.Context, opts Options) (*mesh.Mesh, *thin.Result, error) {
	m, res, _, err := r.ThinWithCacheInfo(ctx, opts)
	return m, res, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *mesh.Mesh, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	data, err := meshJSON(m)
	if err != nil {
		return nil, false, fmt.Errorf("serialize mesh for cache key: %w", err)
	}
	meshHash := cache.Hash(data)

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(meshHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			break
		}
		artifacts[format] = data
	}

	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, m, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(meshHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *mesh.Mesh, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func meshJSON(m *mesh.Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := meshio.WriteJSON(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
