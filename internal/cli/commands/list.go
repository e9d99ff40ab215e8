package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <archive>",
		Short: "List the tables of an archive",
		Long: `List the tables present in an archive with their row and column counts.

Unknown, duplicate and unreadable members are reported as warnings; they do
not make the command fail unless strict mode is enabled.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List tables
  ddf list project.ddf

  # As JSON
  ddf list project.ddf --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runList(cmd, cmdCtx, args[0])
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, c *CommandContext, path string) error {
	a, diags, err := c.readArchive(cmd.Context(), path)
	if err != nil {
		return err
	}

	tables := make([]output.TableInfo, 0, a.Len())
	for _, s := range a.Present() {
		t, _ := a.Get(s)
		tables = append(tables, output.NewTableInfo(s.String(), t))
	}

	r := c.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		unknown := diags.Unknown()
		if unknown == nil {
			unknown = []string{}
		}
		return r.JSON(output.ArchiveInfo{
			Path:        path,
			Tables:      tables,
			Unknown:     unknown,
			Diagnostics: output.NewDiagnosticInfos(diags),
		})
	case output.ModeMarkdown:
		listMarkdown(r, path, tables, diags)
	default:
		listText(r, path, tables)
	}
	return nil
}

func listText(r *output.Renderer, path string, tables []output.TableInfo) {
	r.Header(1, fmt.Sprintf("%s (%d tables)", path, len(tables)))
	if len(tables) == 0 {
		r.Muted("no tables")
		return
	}
	r.Table([]string{"Table", "Rows", "Columns"}, tableRows(tables))
}

func listMarkdown(r *output.Renderer, path string, tables []output.TableInfo, diags ddf.Diagnostics) {
	r.Println(output.FormatHeader(1, "Archive: "+path))
	r.Println(output.FormatKeyValue("Tables", strconv.Itoa(len(tables))))
	r.Println()
	if len(tables) > 0 {
		r.Table([]string{"Table", "Rows", "Columns"}, tableRows(tables))
	}
	if unknown := diags.Unknown(); len(unknown) > 0 {
		r.Println(output.FormatHeader(2, "Unknown members"))
		r.Printf("%s", output.FormatList(unknown))
	}
}

func tableRows(tables []output.TableInfo) [][]string {
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{t.Name, strconv.Itoa(t.Rows), strconv.Itoa(t.Columns)}
	}
	return rows
}
