package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/internal/store"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
)

// NewDBCommand creates the db command and its subcommands.
func NewDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Copy archives to and from SQLite databases",
		Long: `Store the tables of an archive in a SQLite database so they can be queried
with SQL, and rebuild archives from such databases.

Tables are kept in ddf_tables (one row per table, identifiers and column
names as JSON) and ddf_cells (one row per cell). The ddf_table_summary view
lists row and column counts.`,
		Example: `  # Dump an archive, query it, restore it
  ddf db dump project.ddf project.db
  sqlite3 project.db "SELECT value FROM ddf_cells WHERE table_name = 'Materials'"
  ddf db restore project.db restored.ddf`,
	}

	cmd.AddCommand(newDBDumpCommand())
	cmd.AddCommand(newDBRestoreCommand())

	return cmd
}

func newDBDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <archive> <database>",
		Short: "Store the tables of an archive in a SQLite database",
		Long: `Store every recognized table of an archive in a SQLite database, replacing
whatever the database held before. The database is created if needed.`,
		Example: `  ddf db dump project.ddf project.db`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runDBDump(cmd.Context(), cmdCtx, args[0], args[1])
		},
	}
}

func newDBRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <database> <archive>",
		Short: "Write the tables of a SQLite database to an archive",
		Long:  `Rebuild an archive from a database written by "ddf db dump", replacing the archive if it exists.`,
		Example: `  ddf db restore project.db project.ddf`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runDBRestore(cmd.Context(), cmdCtx, args[0], args[1])
		},
	}
}

func runDBDump(ctx context.Context, c *CommandContext, archive, database string) error {
	a, diags, err := c.readArchive(ctx, archive)
	if err != nil {
		return err
	}
	if diags.Has(ddf.NotFound) {
		return fmt.Errorf("archive not found: %s", archive)
	}

	s, err := store.Open(ctx, database, c.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	if err := s.SaveArchive(ctx, a); err != nil {
		return fmt.Errorf("failed to dump %s: %w", archive, err)
	}

	summaries, err := s.Tables(ctx)
	if err != nil {
		return err
	}

	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.DatabaseResult{
			Database:    database,
			Archive:     archive,
			Tables:      archiveTables(a),
			Diagnostics: output.NewDiagnosticInfos(diags),
		})
	}

	rows := make([][]string, len(summaries))
	for i, ts := range summaries {
		rows[i] = []string{ts.Name, strconv.Itoa(ts.Rows), strconv.Itoa(ts.Columns)}
	}
	if len(rows) > 0 {
		r.Table([]string{"Table", "Rows", "Columns"}, rows)
	}
	r.Success(fmt.Sprintf("Dumped %d tables from %s into %s", len(summaries), archive, database))
	return nil
}

func runDBRestore(ctx context.Context, c *CommandContext, database, archive string) error {
	s, err := store.Open(ctx, database, c.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	a, err := s.LoadArchive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", database, err)
	}

	diags, err := c.Manager.Write(ctx, a, archive)
	if c.Renderer.EffectiveMode() != output.ModeJSON {
		c.reportDiagnostics(diags)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", archive, err)
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(output.DatabaseResult{
			Database:    database,
			Archive:     archive,
			Tables:      archiveTables(a),
			Diagnostics: output.NewDiagnosticInfos(diags),
		})
	}
	c.Renderer.Success(fmt.Sprintf("Restored %d tables from %s into %s", a.Len(), database, archive))
	return nil
}

func archiveTables(a *ddf.Archive) []output.TableInfo {
	tables := make([]output.TableInfo, 0, a.Len())
	for _, slot := range a.Present() {
		t, _ := a.Get(slot)
		tables = append(tables, output.NewTableInfo(slot.String(), t))
	}
	return tables
}
