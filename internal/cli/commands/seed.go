package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/backoffice/pkg/core"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := core.DefaultSeedOptions()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo data",
		Long: `Write demo courses, members, orders and invoices so every table has
enough rows to page, sort and filter.`,
		Example: `  backoffice seed
  backoffice seed --members 500 --orders 2000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Store.Seed(cmd.Context(), opts); err != nil {
				return fmt.Errorf("failed to seed database: %w", err)
			}

			cc.Logger.Info("database seeded",
				"courses", opts.Courses,
				"members", opts.Members,
				"orders", opts.Orders,
				"invoices", opts.Invoices,
			)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d courses, %d members, %d orders and %d invoices.\n",
				opts.Courses, opts.Members, opts.Orders, opts.Invoices)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Courses, "courses", opts.Courses, "Number of courses")
	cmd.Flags().IntVar(&opts.Members, "members", opts.Members, "Number of members")
	cmd.Flags().IntVar(&opts.Orders, "orders", opts.Orders, "Number of orders")
	cmd.Flags().IntVar(&opts.Invoices, "invoices", opts.Invoices, "Number of invoices")

	return cmd
}
