package cli

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dronemesh/pkg/errors"
	meshio "github.com/matzehuels/dronemesh/pkg/io"
)

// renderCommand creates the render command for meshes saved as JSON.
func (c *CLI) renderCommand() *cobra.Command {
	var f thinFlags

	cmd := &cobra.Command{
		Use:   "render [mesh.json]",
		Short: "Render a saved mesh to DOT and images",
		Long: `Render a mesh written by "dronemesh thin --formats json" without thinning it
again. The layout stored in the file is used unless --layout is given.`,
		Example: `  dronemesh render output.json --formats svg
  dronemesh render output.json --engine external --formats png -o poster`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := meshio.ImportJSON(args[0])
			if stderrors.Is(err, fs.ErrNotExist) {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "mesh file %s", args[0])
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", args[0])
			}

			opts, err := c.thinOptions(cmd, f)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("layout") && m.Layout() != "" {
				opts.Layout = m.Layout()
			}
			if !cmd.Flags().Changed("formats") {
				opts.Formats = []string{"svg"}
			}
			if edges := m.Edges(); len(edges) > 0 && !cmd.Flags().Changed("weight") {
				opts.Weight = edges[0].Weight
			}

			base := f.output
			if base == "" {
				base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}

			runner, err := c.newRunner(cmd.Context(), f.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printStats(m.NodeCount(), m.EdgeCount(), false)
			return c.writeOutputs(withLogger(cmd.Context(), c.Logger), runner, m, opts, base)
		},
	}

	cmd.Flags().Float64Var(&f.weight, "weight", 0, "edge label used by the external engine (default from the mesh)")
	c.addOutputFlags(cmd, &f)

	return cmd
}
