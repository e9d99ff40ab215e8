package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
)

// SetOptions holds options for the set command.
type SetOptions struct {
	Out string
}

// NewSetCommand creates the set command.
func NewSetCommand() *cobra.Command {
	opts := &SetOptions{}

	cmd := &cobra.Command{
		Use:   "set <archive> <table> <row> <column> <value>",
		Short: "Edit one cell of a table and save the archive",
		Long: `Set one cell and save the archive.

Rows are numbered from 0 (the first data row). The column is a column name,
or a 0-based index when no column has that name.`,
		Example: `  # Change the conductivity of the first material
  ddf set project.ddf Materials 0 Conductivity 0.75

  # Save the edit to a new archive
  ddf set project.ddf Materials 0 1 0.75 --out modified.ddf`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runSet(cmd, cmdCtx, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "Save to this path instead of overwriting the archive")

	return cmd
}

func runSet(cmd *cobra.Command, c *CommandContext, args []string, opts *SetOptions) error {
	path, name, rowArg, column, value := args[0], args[1], args[2], args[3], args[4]

	slot, err := resolveSlot(name)
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return fmt.Errorf("invalid row %q: %w", rowArg, err)
	}

	a, _, err := c.readArchive(cmd.Context(), path)
	if err != nil {
		return err
	}
	t, ok := a.Get(slot)
	if !ok {
		return fmt.Errorf("table %s not present in %s", slot, path)
	}

	col, err := columnIndex(t, column)
	if err != nil {
		return err
	}
	old, _ := t.Cell(row, col)
	if err := t.SetCell(row, col, value); err != nil {
		return fmt.Errorf("cannot set %s[%d][%s]: %w", slot, row, column, err)
	}

	dest := path
	if opts.Out != "" {
		dest = opts.Out
	}
	if _, err := c.Manager.Write(cmd.Context(), a, dest); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	c.Logger.Debug("cell updated",
		"table", slot.String(),
		"row", row,
		"column", col,
	)
	c.Renderer.Success(fmt.Sprintf("%s[%d][%s]: %q -> %q, saved to %s", slot, row, column, old, value, dest))
	return nil
}

// columnIndex resolves a column by name, then by 0-based index.
func columnIndex(t *cdt.Table, column string) (int, error) {
	if i := t.ColumnIndex(column); i >= 0 {
		return i, nil
	}
	if i, err := strconv.Atoi(column); err == nil {
		return i, nil
	}
	return 0, fmt.Errorf("unknown column %q", column)
}
