package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/httpapi"
)

var serveAddr string

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the onboarding JSON API over HTTP",
	Long: `Start the HTTP API: leads, clients, documents, conversations,
statistics, events, alerts and POST /api/adverse-media.

The listen address comes from --addr, else server.addr in .onboardconfig.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" && Config != nil {
			addr = Config.ServerAddr
		}
		if addr == "" {
			addr = ":8080"
		}

		deps := httpapi.Deps{
			Repo:   Repo,
			Bus:    Bus,
			Alerts: AlertEngine,
			Logger: Logger,
		}
		if Screener != nil {
			deps.Screener = Screener
		}
		srv := httpapi.NewServer(deps)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serving HTTP: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
		return <-errCh
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, then :8080)")
	rootCmd.AddCommand(serveCmd)
}
