package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dronemesh/pkg/errors"
	"github.com/matzehuels/dronemesh/pkg/mesh"
	"github.com/matzehuels/dronemesh/pkg/mesh/thin"
	"github.com/matzehuels/dronemesh/pkg/pipeline"
)

// thinFlags holds the command-line flags shared by thin and render.
type thinFlags struct {
	nodes      int
	percentage int
	weight     float64
	floorMode  string
	layout     string
	engine     string
	dotPath    string
	formats    string
	output     string
	detailed   bool
	noCache    bool
	refresh    bool
	noPrompt   bool
}

// thinCommand creates the thin command.
func (c *CLI) thinCommand() *cobra.Command {
	var f thinFlags

	cmd := &cobra.Command{
		Use:   "thin",
		Short: "Build a complete mesh of N drones and thin it",
		Long: `Build the complete graph of N drones and remove links until every drone
touched by a removal keeps at least N*P/100 neighbours.

The default floor mode (pre-removal) checks degrees before each removal, so a
drone can end exactly at the floor. Use --floor-mode strict to guarantee that
every drone touched by a removal keeps more than N*P/100 neighbours.

The mesh is written as <output>.dot first and then converted to the image
formats. When --nodes and --percentage are omitted on an interactive
terminal, the values are asked for.`,
		Example: `  dronemesh thin -n 10 -p 40
  dronemesh thin -n 50 -p 30 --floor-mode strict --formats dot,json,svg
  dronemesh thin -n 8 -p 25 --engine external --formats dot,png -o mesh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.thinOptions(cmd, f)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("nodes") && !cmd.Flags().Changed("percentage") && !f.noPrompt && isTerminal(c.stdin) {
				if opts.Nodes, opts.Percentage, err = promptMesh(cmd.Context(), opts.Nodes, opts.Percentage); err != nil {
					return err
				}
			}
			return c.runThin(cmd.Context(), opts, f)
		},
	}

	cmd.Flags().IntVarP(&f.nodes, "nodes", "n", 0, "number of drones (default from config)")
	cmd.Flags().IntVarP(&f.percentage, "percentage", "p", 0, "percentage of edges to remove, 0-100 (default from config)")
	cmd.Flags().Float64Var(&f.weight, "weight", 0, "weight of every link")
	cmd.Flags().StringVar(&f.floorMode, "floor-mode", "", "floor check: pre-removal (may end at the floor) or strict (stays above it)")
	cmd.Flags().BoolVar(&f.noPrompt, "no-prompt", false, "never ask for missing values")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached meshes")
	c.addOutputFlags(cmd, &f)

	return cmd
}

// addOutputFlags registers the flags that control rendering.
func (c *CLI) addOutputFlags(cmd *cobra.Command, f *thinFlags) {
	cmd.Flags().StringVar(&f.layout, "layout", "", "Graphviz layout hint (default from config)")
	cmd.Flags().StringVar(&f.engine, "engine", "", "render engine: embedded or external")
	cmd.Flags().StringVar(&f.dotPath, "dot-path", "", "path of the dot binary for the external engine")
	cmd.Flags().StringVarP(&f.formats, "formats", "f", "", "comma-separated output formats: dot, json, svg, png, pdf")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path; files are named <output>.<format>")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show node degrees in labels")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// thinOptions merges configuration and flags. Only flags given on the
// command line override the configuration.
func (c *CLI) thinOptions(cmd *cobra.Command, f thinFlags) (pipeline.Options, error) {
	opts := c.Config.PipelineOptions()
	flags := cmd.Flags()

	if flags.Changed("nodes") {
		opts.Nodes = f.nodes
	}
	if flags.Changed("percentage") {
		opts.Percentage = f.percentage
	}
	if flags.Changed("weight") {
		opts.Weight = f.weight
	}
	if flags.Changed("floor-mode") {
		opts.FloorMode = f.floorMode
	}
	if flags.Changed("layout") {
		opts.Layout = f.layout
	}
	if flags.Changed("engine") {
		opts.Engine = f.engine
	}
	if flags.Changed("dot-path") {
		opts.DotPath = f.dotPath
	}
	if flags.Changed("formats") {
		opts.Formats = parseFormats(f.formats)
	}
	opts.Detailed = f.detailed
	opts.Refresh = f.refresh

	if err := errors.ValidatePath(c.outputBase(f)); err != nil {
		return opts, err
	}
	return opts, nil
}

func (c *CLI) outputBase(f thinFlags) string {
	if f.output != "" {
		return f.output
	}
	return c.Config.Render.Output
}

// runThin builds and thins the mesh, then writes every requested format.
func (c *CLI) runThin(ctx context.Context, opts pipeline.Options, f thinFlags) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx = withLogger(ctx, c.Logger)
	c.Logger.Debug("thinning", "options", opts.String(), "floor_mode", opts.FloorMode)

	prog := newProgress(c.Logger)
	m, res, hit, err := runner.ThinWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("Thinned mesh")

	printSuccess("Graph has been built successfully.")
	printStats(m.NodeCount(), m.EdgeCount(), hit)
	printThinResult(m, res)

	return c.writeOutputs(ctx, runner, m, opts, c.outputBase(f))
}

// writeOutputs writes DOT and JSON first and converts to images afterwards,
// so a failed conversion leaves the DOT file in place.
func (c *CLI) writeOutputs(ctx context.Context, runner *pipeline.Runner, m *mesh.Mesh, opts pipeline.Options, base string) error {
	if len(opts.Formats) == 0 {
		opts.Formats = pipeline.DefaultFormats()
	}
	text, images := splitFormats(opts.Formats)

	if len(text) > 0 {
		textOpts := opts
		textOpts.Formats = text
		artifacts, err := runner.Render(ctx, m, textOpts)
		if err != nil {
			return err
		}
		if err := writeArtifacts(base, text, artifacts); err != nil {
			return err
		}
	}

	if len(images) == 0 {
		if slices.Contains(text, pipeline.FormatJSON) {
			printNextStep("Render images", appName+" render "+base+".json --formats svg")
		}
		return nil
	}

	imageOpts := opts
	imageOpts.Formats = images
	if err := imageOpts.ValidateForRender(); err != nil {
		return err
	}

	conversion := "DOT to " + strings.ToUpper(strings.Join(images, "/"))
	spinner := newSpinnerWithContext(ctx, os.Stderr, "Converting "+conversion+"...")
	spinner.Start()

	prog := newProgress(loggerFromContext(ctx))
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, m, imageOpts)
	if err != nil {
		spinner.StopWithError("Failed to convert %s.", conversion)
		printDetail("%s", errors.UserMessage(err))
		return err
	}
	spinner.StopWithSuccess("%s conversion successful.", conversion)
	if !hit {
		prog.done("Rendered " + strings.Join(images, ", "))
	}

	return writeArtifacts(base, images, artifacts)
}

// writeArtifacts writes each format to <base>.<format>.
func writeArtifacts(base string, formats []string, artifacts map[string][]byte) error {
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// printThinResult prints the floor, degree range and stop reason.
func printThinResult(m *mesh.Mesh, res *thin.Result) {
	ds := m.DegreeStats()
	printKeyValue("Floor", fmt.Sprintf("%d (%s)", res.Floor, res.Mode))
	printKeyValue("Removed", fmt.Sprintf("%d of %d edges", len(res.Removed), res.EdgesBefore))
	printKeyValue("Degree", fmt.Sprintf("min %d · max %d · mean %.2f", ds.Min, ds.Max, ds.Mean))
	printKeyValue("Stopped", res.Reason.String())
}
