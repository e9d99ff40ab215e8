package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/tabular"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format string
	File   string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <archive> <table>",
		Short: "Export one table as CSV, JSON or YAML",
		Long: `Export one table of an archive.

CSV uses the worksheet layout: the first record holds the identifiers, the
second the column names, then one record per row. JSON and YAML write an
object with ids, columns and rows.

Without --format the format is taken from the --file extension, or CSV.`,
		Example: `  # Materials as CSV on stdout
  ddf export project.ddf Materials

  # Schedules as YAML into a file
  ddf export project.ddf Schedules -f schedules.yaml`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeShowArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cmdCtx, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Export format (csv|json|yaml)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Write to file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// resolveFormat picks the interchange format from an explicit name, else the
// file extension, else CSV.
func resolveFormat(name, file string) (tabular.Format, error) {
	if name != "" {
		return tabular.ParseFormat(name)
	}
	if file != "" {
		if f, err := tabular.FormatFromPath(file); err == nil {
			return f, nil
		}
	}
	return tabular.CSV, nil
}

func runExport(cmd *cobra.Command, c *CommandContext, path, name string, opts *ExportOptions) (err error) {
	format, err := resolveFormat(opts.Format, opts.File)
	if err != nil {
		return err
	}
	slot, err := resolveSlot(name)
	if err != nil {
		return err
	}

	a, _, err := c.readArchive(cmd.Context(), path)
	if err != nil {
		return err
	}
	t, ok := a.Get(slot)
	if !ok {
		return fmt.Errorf("table %s not present in %s", slot, path)
	}

	var w io.Writer = c.Renderer.Writer()
	if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.File, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if err := tabular.Export(w, t, format); err != nil {
		return fmt.Errorf("failed to export %s: %w", slot, err)
	}

	c.Logger.Debug("table exported",
		"table", slot.String(),
		"format", string(format),
		"file", opts.File,
	)
	return nil
}
