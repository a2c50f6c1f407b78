package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Bring the database schema up to date. Other commands migrate on
startup too; this one only migrates and reports the schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := cc.Store.MigrationVersion()
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s database at schema version %d\n", cc.Store.Driver(), version)
			return nil
		},
	}
}
