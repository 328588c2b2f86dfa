package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/observability"
)

var (
	alertsJSON   bool
	alertsNotify bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show active compliance alerts",
	Long: `Evaluate alert conditions against the store and the event journal and
display any triggered alerts.

Alerts check for document reviews that have run too long, client risk reviews
past their due date, and onboarding clients missing required documents.
With --notify each alert is also sent to the entity's compliance officer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event journal may be disabled)")
		}

		alerts, err := AlertEngine.Evaluate(cmd.Context())
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if alertsNotify && len(alerts) > 0 {
			if Directory == nil || Sink == nil {
				return fmt.Errorf("cannot notify: assignment directory or notification sink not initialized")
			}
			sent, err := observability.NotifyAlerts(cmd.Context(), alerts, Directory, Sink)
			if err != nil {
				Logger.Warn().Err(err).Int("sent", sent).Msg("some alert notifications failed")
			}
			if !alertsJSON {
				fmt.Fprintf(out, "Sent %d notification(s).\n\n", sent)
			}
		}

		if alertsJSON {
			if alerts == nil {
				alerts = []observability.Alert{}
			}
			return printJSON(out, alerts)
		}

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := strings.ToUpper(string(alert.Severity))
			fmt.Fprintf(out, "  [%s] %s\n", severity, alert.Message)
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output alerts as JSON")
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Notify the assigned compliance officers")
	rootCmd.AddCommand(alertsCmd)
}
