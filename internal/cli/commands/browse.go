package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/backoffice/pkg/core"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	var q listQuery

	cmd := &cobra.Command{
		Use:   "browse <table>",
		Short: "Browse a table interactively",
		Long: `Open a table full screen in the terminal.

Keys: n/p next and previous page, tab pick a column, s sort by it,
/ search, space select a row, a select the page, x clear the selection,
r refetch, q quit.`,
		Example: `  backoffice browse members
  backoffice browse orders --filter status=paid --sort total --dir desc`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: core.Resources,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := findResource(args[0])
			if err != nil {
				return err
			}

			cc, cleanup, err := NewTableContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return res.Browse(cmd.Context(), cc, q, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	addQueryFlags(cmd, &q)
	return cmd
}
