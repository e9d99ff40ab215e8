package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
)

// NewPackCommand creates the pack command.
func NewPackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <dir> <archive>",
		Short: "Build an archive from a folder of table files",
		Long: `Pack every recognized table file of a folder into an archive, replacing
the archive if it exists. This is the inverse of extract; other files are
reported and left out.`,
		Example: `  # Round trip through a folder
  ddf extract project.ddf --dest work
  ddf pack work/project project.ddf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			dir, path := args[0], args[1]
			diags, err := cmdCtx.Manager.Pack(cmd.Context(), dir, path)
			res := output.ExtractResult{
				Source:      dir,
				Destination: path,
				Diagnostics: output.NewDiagnosticInfos(diags),
			}
			if err != nil {
				res.Error = err.Error()
			} else {
				a, _, rerr := cmdCtx.Manager.Read(cmd.Context(), path)
				if rerr != nil {
					return fmt.Errorf("failed to verify %s: %w", path, rerr)
				}
				res.Tables = a.Len()
			}
			return reportRuns(cmdCtx, "Packed", []output.ExtractResult{res}, []error{err})
		},
	}
}
