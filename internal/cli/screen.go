package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/screening"
)

var (
	screenDays int
	screenJSON bool
)

var screenCmd = &cobra.Command{
	Use:   "screen <entity name...>",
	Short: "Search recent news for adverse media about an entity",
	Long: `Ask the configured language model to search recent news for adverse
media about a company or person and print the categorized findings.

  onb screen Acme Holdings --days 90

Requires the API key named by screening.api_key_env in .onboardconfig.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Screener == nil {
			return fmt.Errorf("adverse media screening not available (no API key configured)")
		}
		entity := strings.Join(args, " ")

		result, err := Screener.Screen(cmd.Context(), screening.Request{EntityName: entity, DateRangeDays: screenDays})
		if err != nil {
			var upstream *screening.UpstreamError
			if errors.As(err, &upstream) {
				return fmt.Errorf("screening %q: provider returned %d: %s", entity, upstream.StatusCode, upstream.Details)
			}
			return fmt.Errorf("screening %q: %w", entity, err)
		}

		out := cmd.OutOrStdout()
		if screenJSON {
			return printJSON(out, result)
		}

		fmt.Fprintf(out, "Adverse media for %s (last %d days, searched %s)\n\n",
			result.EntityName, result.DateRange, result.SearchDate.Format("2006-01-02"))
		if result.ParseFailed {
			fmt.Fprintf(out, "  Could not read the model response: %s\n\n%s\n", result.Error, result.RawResponse)
			return nil
		}
		if result.FindingsCount == 0 {
			fmt.Fprintln(out, "  No adverse media found.")
			return nil
		}
		for i, f := range result.Findings {
			fmt.Fprintf(out, "  %d. [%s/%s] %s\n", i+1, f.Severity, f.Category, f.Title)
			fmt.Fprintf(out, "     %s, %s\n", f.Source, f.Date)
			if f.Description != "" {
				fmt.Fprintf(out, "     %s\n", f.Description)
			}
		}
		fmt.Fprintf(out, "\n%d finding(s)\n", result.FindingsCount)
		return nil
	},
}

func init() {
	screenCmd.Flags().IntVar(&screenDays, "days", 30, "Look-back window in days")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(screenCmd)
}
