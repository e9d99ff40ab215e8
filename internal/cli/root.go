// Package cli provides the command-line interface for ddf.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Tokarzewski/ddf-lib/internal/cli/commands"
	"github.com/Tokarzewski/ddf-lib/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ddf",
		Short: "ddf - DDF archive and CDT table tool",
		Long: `ddf reads, edits and writes DDF archives: ZIP containers holding one
CDT table per catalog entry (Materials, Glazing, Schedules, ...).

Missing archives, unreadable tables and unknown members are reported as
warnings while everything readable is still loaded. Use --strict to fail on
unknown members instead.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// Load configuration with CLI flags
			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, configKey{}, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./ddf.yaml)")
	flags.String("extension", "", "Table member extension (default .cdt)")
	flags.Bool("strict", false, "Fail when an archive holds unknown members")
	flags.String("row-policy", "", "Rows whose cell count differs from the columns: pad|reject")
	flags.String("line-ending", "", "Line ending written to tables: crlf|lf")
	flags.String("charset", "", "Table text encoding: utf-8|windows-1252")
	flags.String("temp-dir", "", "Directory for per-call workspaces (default: system temp)")
	flags.Int("workers", 0, "Archives processed concurrently by extract")
	flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for enum flags
	registerEnum(rootCmd, "output", "auto", "text", "markdown", "json")
	registerEnum(rootCmd, "row-policy", "pad", "reject")
	registerEnum(rootCmd, "line-ending", "crlf", "lf")
	registerEnum(rootCmd, "charset", "utf-8", "windows-1252")
	registerEnum(rootCmd, "log-level", "debug", "info", "warn", "error")

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewSlotsCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewSetCommand())
	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewPackCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewDBCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func registerEnum(cmd *cobra.Command, flag string, values ...string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	})
}

// newLogger builds the stderr text logger for the configured level.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
}

// Execute runs the root command. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return config.Default()
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for ddf.

To load completions:

Bash:
  $ source <(ddf completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ ddf completion bash > /etc/bash_completion.d/ddf
  # macOS:
  $ ddf completion bash > $(brew --prefix)/etc/bash_completion.d/ddf

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ ddf completion zsh > "${fpath[1]}/_ddf"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ddf completion fish | source

  # To load completions for each session, execute once:
  $ ddf completion fish > ~/.config/fish/completions/ddf.fish

PowerShell:
  PS> ddf completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ddf completion powershell > ddf.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
