package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	onbmcp "github.com/stampedhq/onboard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the onb MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the onb MCP server on stdio",
	Long: `Start the onb MCP server on stdio transport.

The server exposes onboarding data as MCP tools that AI assistants can call:
list_leads, lead_statistics, document_statistics, review_document,
screen_adverse_media, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}

		deps := onbmcp.Deps{
			Repo:    Repo,
			Metrics: MetricsCalc,
			Alerts:  AlertEngine,
		}
		// A nil Screener must stay a nil interface.
		if Screener != nil {
			deps.Screener = Screener
		}
		srv := onbmcp.NewServer(deps, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
