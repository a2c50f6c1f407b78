// Package cli provides the command-line interface for Backoffice.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/backoffice/internal/cli/commands"
	"github.com/leapstack-labs/backoffice/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "backoffice",
		Short: "Backoffice - data tables for a course platform",
		Long: `Backoffice serves the dashboard tables of a course platform: courses,
orders, members, invoices and export jobs.

Every table is driven by the same list state: page, sort, search, filters
and selection. The web UI, the interactive terminal browser and the list
command all share it.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// Local flags such as serve --port are config keys too
			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Level())
			if cfg.File != "" {
				logger.Debug("using config file", slog.String("path", cfg.File))
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./backoffice.yaml)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver (sqlite|postgres)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path")
	rootCmd.PersistentFlags().String("api-url", "", "Read tables from this REST API instead of the database")
	rootCmd.PersistentFlags().String("api-token", "", "Bearer token for the REST API")
	rootCmd.PersistentFlags().Duration("api-timeout", 0, "Timeout for REST API requests")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")
	rootCmd.PersistentFlags().Bool("dev", false, "Development mode")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for Backoffice.

To load completions:

Bash:
  $ source <(backoffice completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ backoffice completion bash > /etc/bash_completion.d/backoffice
  # macOS:
  $ backoffice completion bash > $(brew --prefix)/etc/bash_completion.d/backoffice

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ backoffice completion zsh > "${fpath[1]}/_backoffice"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ backoffice completion fish | source

  # To load completions for each session, execute once:
  $ backoffice completion fish > ~/.config/fish/completions/backoffice.fish

PowerShell:
  PS> backoffice completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> backoffice completion powershell > backoffice.ps1
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
