package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/rank"
	"github.com/matzehuels/dronemesh/pkg/observability"
	"github.com/matzehuels/dronemesh/pkg/render"
)

// memCache is an in-memory cache that counts hits.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	if ok {
		c.hits++
	}
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"dot", "svg"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateEngine(t *testing.T) {
	for _, e := range []string{"embedded", "external"} {
		if err := ValidateEngine(e); err != nil {
			t.Errorf("ValidateEngine(%q) error = %v", e, err)
		}
	}
	if err := ValidateEngine("wasm"); !errors.Is(err, errors.ErrCodeInvalidEngine) {
		t.Errorf("ValidateEngine(wasm) error = %v, want INVALID_ENGINE", err)
	}
}

func TestOptionsValidateForThin(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want errors.Code
	}{
		{"valid", Options{Nodes: 5, Percentage: 40}, ""},
		{"zero nodes", Options{Nodes: 0, Percentage: 40}, errors.ErrCodeInvalidSize},
		{"negative nodes", Options{Nodes: -2, Percentage: 40}, errors.ErrCodeInvalidSize},
		{"percentage too high", Options{Nodes: 5, Percentage: 101}, errors.ErrCodeInvalidConfig},
		{"negative percentage", Options{Nodes: 5, Percentage: -1}, errors.ErrCodeInvalidConfig},
		{"unknown floor mode", Options{Nodes: 5, FloorMode: "lenient"}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForThin()
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("ValidateForThin() code = %q, want %q (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want errors.Code
	}{
		{"defaults", Options{}, ""},
		{"png embedded", Options{Formats: []string{"png"}}, errors.ErrCodeInvalidEngine},
		{"png external", Options{Formats: []string{"png"}, Engine: EngineExternal}, ""},
		{"bad layout", Options{Layout: "spring"}, errors.ErrCodeInvalidLayout},
		{"bad engine", Options{Engine: "gpu"}, errors.ErrCodeInvalidEngine},
		{"bad format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForRender()
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("ValidateForRender() code = %q, want %q (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{Weight: 5}
	opts.SetRenderDefaults()

	if diff := cmp.Diff(DefaultFormats(), opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}
	if opts.Layout != DefaultLayout {
		t.Errorf("Layout should be %s, got %s", DefaultLayout, opts.Layout)
	}
	if opts.Engine != DefaultEngine {
		t.Errorf("Engine should be %s, got %s", DefaultEngine, opts.Engine)
	}
	if opts.EdgeLabel != "5" {
		t.Errorf("EdgeLabel should follow the weight, got %q", opts.EdgeLabel)
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Nodes: 6, Percentage: 50}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	before := fmt.Sprintf("%v %v %v %v", opts.Weight, opts.Formats, opts.Layout, opts.EdgeLabel)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	after := fmt.Sprintf("%v %v %v %v", opts.Weight, opts.Formats, opts.Layout, opts.EdgeLabel)
	if before != after {
		t.Errorf("options changed on second call: %s -> %s", before, after)
	}
	if opts.Floor() != 3 {
		t.Errorf("Floor() = %d, want 3", opts.Floor())
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	embedded := Options{Engine: EngineEmbedded, Layout: "fdp"}
	external := Options{Engine: EngineExternal, Layout: "fdp"}

	if embedded.ArtifactKeyOpts(FormatDOT) != external.ArtifactKeyOpts(FormatDOT) {
		t.Error("DOT artifacts should not depend on the engine")
	}
	if embedded.ArtifactKeyOpts(FormatSVG) == external.ArtifactKeyOpts(FormatSVG) {
		t.Error("SVG artifacts should depend on the engine")
	}
}

func TestThin(t *testing.T) {
	m, res, err := Thin(Options{Nodes: 5, Percentage: 40})
	if err != nil {
		t.Fatalf("Thin() error: %v", err)
	}
	if res.Floor != 2 || len(res.Removed) != 5 {
		t.Errorf("Floor = %d, removed = %d; want 2, 5", res.Floor, len(res.Removed))
	}
	if m.Layout() != DefaultLayout {
		t.Errorf("Layout() = %q, want %q", m.Layout(), DefaultLayout)
	}
	if w, _ := m.Weight(0, 2); w != DefaultWeight {
		t.Errorf("edge weight = %v, want %v", w, DefaultWeight)
	}
}

func TestThinStrict(t *testing.T) {
	m, _, err := Thin(Options{Nodes: 5, Percentage: 40, FloorMode: "strict"})
	if err != nil {
		t.Fatalf("Thin() error: %v", err)
	}
	if lo := m.DegreeStats().Min; lo != 3 {
		t.Errorf("min degree = %d, want 3", lo)
	}
}

func TestCoded(t *testing.T) {
	tests := []struct {
		err  error
		want errors.Code
	}{
		{fmt.Errorf("x: %w", mesh.ErrInvalidSize), errors.ErrCodeInvalidSize},
		{fmt.Errorf("x: %w", rank.ErrEmpty), errors.ErrCodeEmptyStructure},
		{fmt.Errorf("x: %w", mesh.ErrEdgeNotFound), errors.ErrCodeEdgeNotFound},
		{stderrors.New("boom"), errors.ErrCodeInternal},
		{errors.New(errors.ErrCodeCache, "keep"), errors.ErrCodeCache},
	}
	for _, tt := range tests {
		if got := errors.GetCode(coded(tt.err)); got != tt.want {
			t.Errorf("coded(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
	if coded(nil) != nil {
		t.Error("coded(nil) should be nil")
	}
}

func TestRenderTextFormats(t *testing.T) {
	m, _, err := Thin(Options{Nodes: 4, Percentage: 50})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Render(context.Background(), m, Options{Formats: []string{"dot", "json"}, Weight: 5})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(artifacts["dot"])
	if !strings.HasPrefix(dot, "graph G {") || !strings.Contains(dot, `label="5"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
	if !strings.Contains(string(artifacts["json"]), `"label": "Drone:3"`) {
		t.Errorf("unexpected JSON:\n%s", artifacts["json"])
	}
}

func TestRenderExternalNotInstalled(t *testing.T) {
	m, _, _ := Thin(Options{Nodes: 3, Percentage: 0})
	_, err := Render(context.Background(), m, Options{
		Formats: []string{"svg"},
		Engine:  EngineExternal,
		DotPath: filepath.Join(t.TempDir(), "no-such-dot"),
	})
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Errorf("Render() code = %q, want RENDER_FAILED", errors.GetCode(err))
	}
	if !stderrors.Is(err, render.ErrNotInstalled) {
		t.Errorf("Render() error = %v, want ErrNotInstalled in chain", err)
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	opts := Options{Nodes: 6, Percentage: 50, Formats: []string{"dot", "json"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.CacheInfo.ThinHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}
	if first.RunID == "" || first.MeshHash == "" {
		t.Errorf("RunID = %q, MeshHash = %q", first.RunID, first.MeshHash)
	}
	if first.Stats.EdgesBefore != 15 || first.Stats.EdgesAfter != 15-len(first.Thin.Removed) {
		t.Errorf("Stats = %+v", first.Stats)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.ThinHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.RunID == first.RunID {
		t.Error("each run should get a fresh RunID")
	}
	if diff := cmp.Diff(first.Mesh.Edges(), second.Mesh.Edges()); diff != "" {
		t.Errorf("cached mesh differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Thin, second.Thin); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}
	if string(first.Artifacts["dot"]) != string(second.Artifacts["dot"]) {
		t.Error("cached DOT differs")
	}
}

func TestRunnerRefresh(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, nil)
	opts := Options{Nodes: 4, Percentage: 25}

	if _, _, _, err := r.ThinWithCacheInfo(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	_, _, hit, err := r.ThinWithCacheInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestRunnerExecuteInvalid(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Nodes: 0})
	if !errors.Is(err, errors.ErrCodeInvalidSize) {
		t.Errorf("Execute() error = %v, want INVALID_SIZE", err)
	}
}

// cancelAfterThin cancels the request once the thin stage completes.
type cancelAfterThin struct {
	observability.NoopPipelineHooks
	cancel   context.CancelFunc
	rendered bool
}

func (h *cancelAfterThin) OnThinComplete(context.Context, int, string, time.Duration, error) {
	h.cancel()
}

func (h *cancelAfterThin) OnRenderStart(context.Context, []string) { h.rendered = true }

func TestRunnerExecuteStopsWhenCancelledAfterThin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hooks := &cancelAfterThin{cancel: cancel}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(newMemCache(), nil, nil)
	res, err := r.Execute(ctx, Options{Nodes: 6, Percentage: 50, Formats: []string{"dot"}})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Errorf("Execute() result = %+v, want nil", res)
	}
	if hooks.rendered {
		t.Error("render stage should not start after cancellation")
	}
}

func TestRunnerSaveLoadRun(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, nil)
	opts := Options{Nodes: 5, Percentage: 40, Formats: []string{"dot"}}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	run := NewRun(opts, res)
	if err := r.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	got, err := r.LoadRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("LoadRun() error: %v", err)
	}
	want := [][2]int{{0, 1}, {2, 3}, {0, 4}, {1, 2}, {3, 4}}
	if diff := cmp.Diff(want, got.Removed); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}
	if got.Reason != "floor" || got.Floor != 2 || got.Edges != 5 {
		t.Errorf("run = %+v", got)
	}
	if string(got.Artifacts["dot"]) != string(res.Artifacts["dot"]) {
		t.Error("stored DOT differs")
	}
}

func TestRunnerLoadRunMissing(t *testing.T) {
	r := NewRunner(newMemCache(), nil, nil)
	for _, id := range []string{"not-a-uuid", "5b7c3f0e-8d4f-4a8e-9a53-0d7b0f1c2e3a"} {
		if _, err := r.LoadRun(context.Background(), id); !errors.Is(err, errors.ErrCodeRunNotFound) {
			t.Errorf("LoadRun(%q) error = %v, want RUN_NOT_FOUND", id, err)
		}
	}
}
