package commands

import (
	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/output"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display ddf version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(getConfig().OutputFormat))
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(output.VersionInfo{Version: version, BuildDate: buildDate, GitCommit: gitCommit})
			}
			r.Printf("ddf v%s\n", version)
			r.Println("DDF archive and CDT table tool")
			if buildDate != "unknown" || gitCommit != "unknown" {
				r.Printf("built %s from %s\n", buildDate, gitCommit)
			}
			return nil
		},
	}
}
