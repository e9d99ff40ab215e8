package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/config"
	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
	"github.com/Tokarzewski/ddf-lib/pkg/ddf"
	"github.com/Tokarzewski/ddf-lib/pkg/schema"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Manager  *ddf.Manager
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an archive manager and
// renderer built from the current configuration.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	opts, err := cfg.ManagerOptions(logger)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Manager:  ddf.New(opts),
		Renderer: r,
	}, nil
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (commands built outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// readArchive reads an archive and prints its diagnostics.
func (c *CommandContext) readArchive(ctx context.Context, path string) (*ddf.Archive, ddf.Diagnostics, error) {
	a, diags, err := c.Manager.Read(ctx, path)
	if c.Renderer.EffectiveMode() != output.ModeJSON {
		c.reportDiagnostics(diags)
	}
	if err != nil {
		return nil, diags, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return a, diags, nil
}

// reportDiagnostics prints each diagnostic as a warning on stderr.
func (c *CommandContext) reportDiagnostics(diags ddf.Diagnostics) {
	for _, d := range diags {
		c.Renderer.Warning(d.String())
	}
}

// resolveSlot maps a table name to its slot. An exact match wins; otherwise
// a case-insensitive match is accepted.
func resolveSlot(name string) (schema.Slot, error) {
	if s, ok := schema.Lookup(name); ok {
		return s, nil
	}
	if s, ok := schema.LookupFold(name); ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown table %q\nHint: valid tables are %s", name, strings.Join(schema.Names(), ", "))
}

// completeTableNames completes table name arguments.
func completeTableNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return schema.Names(), cobra.ShellCompDirectiveNoFileComp
}
