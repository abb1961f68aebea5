// Package pipeline provides the build → thin → render pipeline for dronemesh.
//
// The CLI and the HTTP API both run meshes through this package so that
// defaults, validation and caching behave identically for every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Create the complete graph of N drones
//  2. Thin: Remove edges until the degree floor N*P/100 is reached
//  3. Render: Serialize to DOT/JSON and render SVG, PNG or PDF
//
// Build and thin are cached together (the result depends only on N, P, the
// weight and the floor mode); rendered artifacts are cached per format.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Nodes:      10,
//	    Percentage: 40,
//	    Formats:    []string{"dot", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	m, res, err := runner.Thin(ctx, opts)
//	artifacts, err := runner.Render(ctx, m, opts)
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dronemesh/pkg/cache"
	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultNodes is the mesh size used when none is given.
	DefaultNodes = 10

	// DefaultPercentage is the removal percentage used when none is given.
	DefaultPercentage = 40

	// DefaultWeight is the weight carried by every generated edge.
	DefaultWeight = 5.0

	// DefaultLayout is the Graphviz layout hint stored on the mesh.
	DefaultLayout = "fdp"

	// DefaultEngine renders in-process.
	DefaultEngine = EngineEmbedded
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// Render engines.
const (
	// EngineEmbedded renders SVG with the WebAssembly Graphviz build.
	EngineEmbedded = "embedded"
	// EngineExternal runs the dot binary.
	EngineExternal = "external"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidEngines is the set of supported render engines.
var ValidEngines = map[string]bool{
	EngineEmbedded: true,
	EngineExternal: true,
}

// DefaultFormats are the artifacts written when none are requested,
// matching output.dot and output.svg.
func DefaultFormats() []string { return []string{FormatDOT, FormatSVG} }

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Thin options
	Nodes      int     `json:"nodes"`
	Percentage int     `json:"percentage"`
	Weight     float64 `json:"weight,omitempty"`
	FloorMode  string  `json:"floor_mode,omitempty"`
	Refresh    bool    `json:"refresh,omitempty"`

	// Render options
	Layout    string   `json:"layout,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	Engine    string   `json:"engine,omitempty"`
	EdgeLabel string   `json:"edge_label,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger `json:"-"`
	DotPath string      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run (a random UUID).
	RunID string

	// Mesh is the thinned mesh.
	Mesh *mesh.Mesh

	// MeshHash is the content hash of the thinned mesh's JSON form.
	MeshHash string

	// Thin describes what the thinning driver did.
	Thin *thin.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes       int
	EdgesBefore int
	EdgesAfter  int
	Floor       int
	MinDegree   int
	MaxDegree   int
	ThinTime    time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ThinHit   bool // Whether the thinned mesh came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that a render engine is valid.
func ValidateEngine(engine string) error {
	if !ValidEngines[engine] {
		return errors.New(errors.ErrCodeInvalidEngine, "invalid engine: %q (must be one of: embedded, external)", engine)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForThin(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForThin checks the mesh size, percentage and floor mode and sets
// the weight default. A zero node count is rejected, not defaulted: callers
// that want DefaultNodes must ask for it.
func (o *Options) ValidateForThin() error {
	if err := errors.ValidateNodeCount(o.Nodes); err != nil {
		return err
	}
	if err := errors.ValidatePercentage(o.Percentage); err != nil {
		return err
	}
	if _, err := thin.ParseFloorMode(o.FloorMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "floor_mode")
	}
	if o.Weight == 0 {
		o.Weight = DefaultWeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats()
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.EdgeLabel == "" && o.Weight != 0 {
		o.EdgeLabel = strconv.FormatFloat(o.Weight, 'g', -1, 64)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := errors.ValidateLayout(o.Layout); err != nil {
		return err
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.Engine == EngineEmbedded {
		for _, f := range o.Formats {
			if f == FormatPNG || f == FormatPDF {
				return errors.New(errors.ErrCodeInvalidEngine, "format %s requires the external engine", f)
			}
		}
	}
	return nil
}

// Floor returns the degree floor N*P/100.
func (o *Options) Floor() int {
	return thin.Floor(o.Nodes, o.Percentage)
}

// ThinOptions converts the floor mode into driver options.
// It assumes ValidateForThin has succeeded.
func (o *Options) ThinOptions() []thin.Option {
	mode, _ := thin.ParseFloorMode(o.FloorMode)
	return []thin.Option{thin.WithFloorMode(mode)}
}

// MeshKeyOpts returns cache key options for the thinned mesh.
func (o *Options) MeshKeyOpts() cache.MeshKeyOpts {
	mode, _ := thin.ParseFloorMode(o.FloorMode)
	return cache.MeshKeyOpts{
		Nodes:      o.Nodes,
		Percentage: o.Percentage,
		Weight:     o.Weight,
		FloorMode:  mode.String(),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:    format,
		Layout:    o.Layout,
		EdgeLabel: o.EdgeLabel,
	}
	// DOT and JSON are engine independent.
	if format != FormatDOT && format != FormatJSON {
		opts.Engine = o.Engine
	}
	if o.Detailed {
		opts.Format += "+detailed"
	}
	return opts
}

func (o *Options) String() string {
	return fmt.Sprintf("nodes=%d percentage=%d floor=%d", o.Nodes, o.Percentage, o.Floor())
}
