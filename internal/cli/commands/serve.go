package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/backoffice/internal/state"
	"github.com/leapstack-labs/backoffice/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the back-office web UI",
		Long: `Start a local web server with the dashboard tables.

Table state lives in the URL, so any page can be bookmarked or shared.
Changes made elsewhere (another visitor approving a member, an export
finishing, a write to the database file) refresh open tables live.`,
		Example: `  # Start on the default port
  backoffice serve

  # Custom port, open the browser
  backoffice serve --port 3000 --open

  # Read rows from a REST API instead of the database
  backoffice serve --api-url https://api.example.com --api-token $TOKEN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var dbPath string
			if cc.Store.Driver() == state.DriverSQLite && cc.Store.Path() != ":memory:" {
				dbPath = cc.Store.Path()
			}

			server := ui.NewServer(ui.Options{
				Store:  cc.Store,
				Config: cc.Cfg,
				Logger: cc.Logger,
				API:    cc.API,
				DBPath: dbPath,
			})

			url := fmt.Sprintf("http://localhost:%d", cc.Cfg.Server.Port)
			if open {
				go openBrowser(url)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting UI server on %s\n", url)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Serve(ctx)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8080)")
	cmd.Flags().Bool("watch", true, "Refresh tables when the database file changes")
	cmd.Flags().String("session-secret", "", "Secret for the session cookie (default: random per run)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the browser")

	return cmd
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	ctx := context.Background()
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}
