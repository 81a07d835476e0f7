package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the preview server with live reload",
	Long: `Start the preview server. It renders pages on request, serves the content
as JSON under /api, keeps the locale and theme preferences and reloads open
browsers when content files change.

Examples:
  folio serve                      # http://localhost:3000
  folio serve -p 8080              # Another port
  folio serve --no-watch           # Without live reload`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlags *StandardFlags

func init() {
	rootCmd.AddCommand(serveCmd)

	serveFlags = AddStandardFlags(serveCmd, nil, "server")

	bindFlag("server.port", serveCmd.Flags().Lookup("port"))
	bindFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := serveFlags.ValidateFlags(); err != nil {
		return err
	}

	svc, err := newServices(cmd)
	if err != nil {
		return err
	}
	if serveFlags.NoWatch {
		svc.cfg.Server.Watch = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	preferences, err := svc.Preferences(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	pages, err := svc.Site()
	if err != nil {
		return err
	}

	srv := server.New(svc.cfg, svc.catalog, preferences, pages, svc.logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Starting folio at http://%s\n", srv.Addr())

	return srv.Start(ctx)
}
