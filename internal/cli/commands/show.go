package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/cdt"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Limit int
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <archive> <table>",
		Short: "Display one table of an archive",
		Long: `Display the identifiers, column names and rows of one table.

Table names are matched exactly first, then case-insensitively.`,
		Example: `  # Show the Materials table
  ddf show project.ddf Materials

  # Only the first 10 rows
  ddf show project.ddf Materials --limit 10`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeShowArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runShow(cmd, cmdCtx, args[0], args[1], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of rows to display (0 for all)")

	return cmd
}

func completeShowArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		return completeTableNames(cmd, args, toComplete)
	}
	return nil, cobra.ShellCompDirectiveDefault
}

func runShow(cmd *cobra.Command, c *CommandContext, path, name string, opts *ShowOptions) error {
	if opts.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
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

	rows := t.Rows
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		doc := output.TableOutput{
			Name:    slot.String(),
			IDs:     t.IDs,
			Columns: t.Columns,
			Rows:    rows,
			Total:   t.NumRows(),
		}
		if doc.IDs == nil {
			doc.IDs = []int{}
		}
		if doc.Columns == nil {
			doc.Columns = []string{}
		}
		if doc.Rows == nil {
			doc.Rows = [][]string{}
		}
		return r.JSON(doc)
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, slot.String()))
		r.Println(output.FormatKeyValue("IDs", formatIDs(t.IDs)))
		r.Println(output.FormatKeyValue("Rows", strconv.Itoa(t.NumRows())))
		r.Println()
	} else {
		r.Header(1, fmt.Sprintf("%s (%d rows, %d columns)", slot, t.NumRows(), t.NumColumns()))
		r.Muted("ids: " + formatIDs(t.IDs))
	}

	r.Table(displayHeader(t), rows)
	if len(rows) < t.NumRows() {
		r.Muted(fmt.Sprintf("... %d more rows", t.NumRows()-len(rows)))
	}
	return nil
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// displayHeader returns the column names, extended with placeholders for
// cells of rows longer than the header.
func displayHeader(t *cdt.Table) []string {
	width := t.NumColumns()
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, t.Columns)
	for i := t.NumColumns(); i < width; i++ {
		header[i] = fmt.Sprintf("(%d)", i)
	}
	return header
}
