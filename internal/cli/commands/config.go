package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
BACKOFFICE_ environment variables and flags. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutStore(cmd)
			out := cmd.OutOrStdout()

			if cc.Cfg.File != "" {
				_, _ = fmt.Fprintf(out, "# %s\n", cc.Cfg.File)
			}

			redacted := cc.Cfg.Redacted()
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(&redacted); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return enc.Close()
		},
	}
}
