package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/observability"
)

var (
	eventsType  string
	eventsSince string
	eventsLimit int
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the event journal",
	Long: `Show events recorded in the journal, oldest first. Every data change
published on the event bus is journaled.

  onb events --type document:uploaded --since 24h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event journal not initialized")
		}
		filter := observability.EventFilter{Type: eventsType}
		if eventsSince != "" {
			since, err := parseSinceDuration(eventsSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		if eventsLimit > 0 && len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			return printJSON(out, events)
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No events recorded.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-5s %-22s %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Type, e.Message)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only events of this type (e.g. message:sent)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only events newer than this (e.g. 7d, 24h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "Show at most this many of the newest events (0 for all)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(eventsCmd)
}
