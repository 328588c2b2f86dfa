package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/core"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	leadsJSON bool

	leadStage    string
	leadIndustry string
	leadCountry  string
	leadMinScore int
	leadMaxScore int

	leadCompany  string
	leadContact  string
	leadEmail    string
	leadPhone    string
	leadScore    int
	leadStatus   string
	leadNotes    string
	leadAssignee string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Manage sales leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, optionally filtered",
	Long: `List leads newest first. Filters are combined with AND:

  onb leads list --industry Technology --min-score 80`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		filter := models.LeadFilter{
			Stage:    models.PipelineStage(leadStage),
			Industry: models.Industry(leadIndustry),
			Country:  leadCountry,
		}
		if cmd.Flags().Changed("min-score") {
			v := leadMinScore
			filter.MinScore = &v
		}
		if cmd.Flags().Changed("max-score") {
			v := leadMaxScore
			filter.MaxScore = &v
		}

		leads, err := Repo.FilterLeads(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("listing leads: %w", err)
		}
		return printLeads(cmd.OutOrStdout(), leads)
	},
}

var leadsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search leads by company, contact or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		leads, err := Repo.SearchLeads(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("searching leads: %w", err)
		}
		return printLeads(cmd.OutOrStdout(), leads)
	},
}

var leadsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a lead",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		in := models.LeadInput{
			CompanyName:   leadCompany,
			Industry:      models.Industry(leadIndustry),
			Country:       leadCountry,
			ContactName:   leadContact,
			ContactEmail:  leadEmail,
			ContactPhone:  leadPhone,
			PipelineStage: models.PipelineStage(leadStage),
			AssignedTo:    leadAssignee,
			Notes:         leadNotes,
		}
		if cmd.Flags().Changed("score") {
			v := leadScore
			in.AIScore = &v
		}

		lead, err := Repo.CreateLead(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("creating lead: %w", err)
		}
		if leadsJSON {
			return printJSON(cmd.OutOrStdout(), lead)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created lead %s (%s, %s)\n", lead.ID, lead.CompanyName, lead.PipelineStage)
		return nil
	},
}

var leadsUpdateCmd = &cobra.Command{
	Use:               "update <lead-id>",
	Short:             "Update fields of a lead",
	ValidArgsFunction: completeLeadIDs,
	Long: `Update a lead. Only the flags given are changed:

  onb leads update lead-01 --stage proposal --score 88`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		patch, err := leadPatchFromFlags(cmd)
		if err != nil {
			return err
		}
		lead, err := Repo.UpdateLead(cmd.Context(), args[0], patch)
		if err != nil {
			return fmt.Errorf("updating lead %s: %w", args[0], err)
		}
		if leadsJSON {
			return printJSON(cmd.OutOrStdout(), lead)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated lead %s: stage %s, status %s, score %d\n",
			lead.ID, lead.PipelineStage, lead.Status, lead.AIScore)
		return nil
	},
}

var leadsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		stats, err := Repo.GetLeadStatistics(cmd.Context())
		if err != nil {
			return fmt.Errorf("computing lead statistics: %w", err)
		}
		out := cmd.OutOrStdout()
		if leadsJSON {
			return printJSON(out, stats)
		}
		fmt.Fprintln(out, "Lead pipeline")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-20s %d\n", "Total:", stats.TotalLeads)
		fmt.Fprintf(out, "  %-20s %d\n", "Active:", stats.ActiveLeads)
		fmt.Fprintf(out, "  %-20s %d\n", "Converted:", stats.ConvertedLeads)
		fmt.Fprintf(out, "  %-20s %d\n", "Lost:", stats.LostLeads)
		fmt.Fprintf(out, "  %-20s %.1f%%\n", "Conversion rate:", stats.ConversionRate)
		fmt.Fprintf(out, "  %-20s %d\n", "Average AI score:", stats.AverageScore)
		fmt.Fprintln(out, "\n  By stage:")
		for _, stage := range models.PipelineStages {
			fmt.Fprintf(out, "    %-18s %d\n", string(stage)+":", stats.StageDistribution[stage])
		}
		return nil
	},
}

func leadPatchFromFlags(cmd *cobra.Command) (models.LeadPatch, error) {
	var patch models.LeadPatch
	flags := cmd.Flags()
	if flags.Changed("company") {
		patch.CompanyName = &leadCompany
	}
	if flags.Changed("industry") {
		v := models.Industry(leadIndustry)
		patch.Industry = &v
	}
	if flags.Changed("country") {
		patch.Country = &leadCountry
	}
	if flags.Changed("contact") {
		patch.ContactName = &leadContact
	}
	if flags.Changed("email") {
		patch.ContactEmail = &leadEmail
	}
	if flags.Changed("status") {
		v := models.LeadStatus(leadStatus)
		patch.Status = &v
	}
	if flags.Changed("stage") {
		v := models.PipelineStage(leadStage)
		patch.PipelineStage = &v
	}
	if flags.Changed("score") {
		v := leadScore
		patch.AIScore = &v
	}
	if flags.Changed("assign") {
		patch.AssignedTo = &leadAssignee
	}
	if flags.Changed("notes") {
		patch.Notes = &leadNotes
	}
	if patch == (models.LeadPatch{}) {
		return patch, fmt.Errorf("nothing to update: %w", core.ErrValidation)
	}
	return patch, nil
}

func printLeads(w io.Writer, leads []models.Lead) error {
	if leadsJSON {
		return printJSON(w, leads)
	}
	if len(leads) == 0 {
		fmt.Fprintln(w, "No leads found.")
		return nil
	}
	fmt.Fprintf(w, "%-10s %-28s %-14s %-14s %-6s %s\n", "ID", "COMPANY", "INDUSTRY", "STAGE", "SCORE", "COUNTRY")
	for _, l := range leads {
		fmt.Fprintf(w, "%-10s %-28s %-14s %-14s %-6d %s\n",
			truncate(l.ID, 10), truncate(l.CompanyName, 28), truncate(string(l.Industry), 14),
			l.PipelineStage, l.AIScore, l.Country)
	}
	fmt.Fprintf(w, "\n%d lead(s)\n", len(leads))
	return nil
}

func init() {
	leadsCmd.PersistentFlags().BoolVar(&leadsJSON, "json", false, "Output as JSON")

	leadsListCmd.Flags().StringVar(&leadStage, "stage", "", "Filter by pipeline stage")
	leadsListCmd.Flags().StringVar(&leadIndustry, "industry", "", "Filter by industry")
	leadsListCmd.Flags().StringVar(&leadCountry, "country", "", "Filter by country")
	leadsListCmd.Flags().IntVar(&leadMinScore, "min-score", 0, "Minimum AI score (inclusive)")
	leadsListCmd.Flags().IntVar(&leadMaxScore, "max-score", 100, "Maximum AI score (inclusive)")

	for _, c := range []*cobra.Command{leadsCreateCmd, leadsUpdateCmd} {
		c.Flags().StringVar(&leadCompany, "company", "", "Company name")
		c.Flags().StringVar(&leadIndustry, "industry", "", "Industry")
		c.Flags().StringVar(&leadCountry, "country", "", "Country")
		c.Flags().StringVar(&leadContact, "contact", "", "Contact name")
		c.Flags().StringVar(&leadEmail, "email", "", "Contact email")
		c.Flags().StringVar(&leadStage, "stage", "", "Pipeline stage")
		c.Flags().IntVar(&leadScore, "score", 0, "AI score (0-100)")
		c.Flags().StringVar(&leadAssignee, "assign", "", "Assigned employee id")
		c.Flags().StringVar(&leadNotes, "notes", "", "Notes")
	}
	leadsCreateCmd.Flags().StringVar(&leadPhone, "phone", "", "Contact phone")
	leadsUpdateCmd.Flags().StringVar(&leadStatus, "status", "", "Lead status (active, qualified, lost, converted)")
	for _, c := range []*cobra.Command{leadsListCmd, leadsCreateCmd, leadsUpdateCmd} {
		_ = c.RegisterFlagCompletionFunc("stage", completePipelineStages)
	}

	leadsCmd.AddCommand(leadsListCmd, leadsSearchCmd, leadsCreateCmd, leadsUpdateCmd, leadsStatsCmd)
	rootCmd.AddCommand(leadsCmd)
}
