package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/tabular"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Format string
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <archive> <table> <file>",
		Short: "Replace or add one table from a CSV, JSON or YAML file",
		Long: `Read a table from a file and store it in the archive, replacing the
table if it exists. The archive is created when it does not exist yet.

The file uses the same layouts as export. Short rows are padded and
identifiers that are not integers become 0.`,
		Example: `  # Replace Materials from a CSV file
  ddf import project.ddf Materials materials.csv

  # Start a new archive from a YAML file
  ddf import new.ddf Schedules schedules.yaml`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runImport(cmd, cmdCtx, args[0], args[1], args[2], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Input format (csv|json|yaml), default from the file extension")

	return cmd
}

func runImport(cmd *cobra.Command, c *CommandContext, path, name, file string, opts *ImportOptions) error {
	format, err := resolveFormat(opts.Format, file)
	if err != nil {
		return err
	}
	slot, err := resolveSlot(name)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	t, err := tabular.Import(f, format)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", file, err)
	}

	a, diags, err := c.Manager.Read(cmd.Context(), path)
	if err != nil {
		c.reportDiagnostics(diags)
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	// A missing archive is created.
	for _, d := range diags {
		if d.Kind != ddf.NotFound {
			c.Renderer.Warning(d.String())
		}
	}

	a.Set(slot, t)
	if _, err := c.Manager.Write(cmd.Context(), a, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	c.Renderer.Success(fmt.Sprintf("Imported %s into %s (%d rows, %d columns)", slot, path, t.NumRows(), t.NumColumns()))
	return nil
}
