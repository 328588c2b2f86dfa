package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	clientsJSON bool

	clientStage    string
	clientCompany  string
	clientIndustry string
	clientCountry  string
	clientEmail    string
	clientContact  string
	clientOfficer  string
	clientNotes    string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage onboarding clients",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		var (
			clients []models.Client
			err     error
		)
		if clientStage != "" {
			clients, err = Repo.GetClientsByLifecycleStage(cmd.Context(), models.LifecycleStage(clientStage))
		} else {
			clients, err = Repo.GetClients(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("listing clients: %w", err)
		}

		out := cmd.OutOrStdout()
		if clientsJSON {
			return printJSON(out, clients)
		}
		if len(clients) == 0 {
			fmt.Fprintln(out, "No clients found.")
			return nil
		}
		fmt.Fprintf(out, "%-12s %-28s %-13s %-9s %-8s %s\n", "ID", "COMPANY", "STAGE", "STATUS", "RISK", "OFFICER")
		for _, c := range clients {
			fmt.Fprintf(out, "%-12s %-28s %-13s %-9s %-8s %s\n",
				truncate(c.ID, 12), truncate(c.CompanyName, 28), c.LifecycleStage, c.Status, c.RiskLevel, c.AssignedOfficerName)
		}
		return nil
	},
}

var clientsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start onboarding a new client",
	Long: `Create a client in the onboarding stage. With --officer the compliance
officer is also recorded in the assignment directory, so document uploads
notify them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		if clientCompany == "" {
			return fmt.Errorf("--company is required")
		}

		in := models.ClientInput{
			CompanyName:    clientCompany,
			Industry:       clientIndustry,
			Country:        clientCountry,
			Email:          clientEmail,
			PrimaryContact: clientContact,
			Notes:          clientNotes,
		}
		if clientOfficer != "" && Directory != nil {
			officer, err := Directory.GetEmployeeByID(cmd.Context(), clientOfficer)
			if err != nil {
				return fmt.Errorf("looking up officer %s: %w", clientOfficer, err)
			}
			in.AssignedOfficer = officer.ID
			in.AssignedOfficerName = officer.Name
		}

		client, err := Repo.CreateClient(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("creating client: %w", err)
		}
		if in.AssignedOfficer != "" {
			if err := Directory.AssignOfficerToClient(cmd.Context(), client.ID, in.AssignedOfficer); err != nil {
				return fmt.Errorf("assigning officer to %s: %w", client.ID, err)
			}
		}

		if clientsJSON {
			return printJSON(cmd.OutOrStdout(), client)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created client %s (%s), officer %s\n", client.ID, client.CompanyName, client.AssignedOfficerName)
		return nil
	},
}

var clientsStageCmd = &cobra.Command{
	Use:               "stage <client-id> <stage>",
	Short:             "Move a client to another lifecycle stage",
	ValidArgsFunction: completeClientStage,
	Long: `Move a client through its lifecycle: onboarding, active, under_review,
suspended, offboarded. Offboarded clients cannot be moved again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRepo(); err != nil {
			return err
		}
		client, err := Repo.TransitionClientLifecycle(cmd.Context(), args[0], models.LifecycleStage(args[1]), clientNotes)
		if err != nil {
			return fmt.Errorf("moving client %s: %w", args[0], err)
		}
		if clientsJSON {
			return printJSON(cmd.OutOrStdout(), client)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Client %s is now %s (%s)\n", client.ID, client.LifecycleStage, client.Status)
		return nil
	},
}

func init() {
	clientsCmd.PersistentFlags().BoolVar(&clientsJSON, "json", false, "Output as JSON")

	clientsListCmd.Flags().StringVar(&clientStage, "stage", "", "Filter by lifecycle stage")

	clientsCreateCmd.Flags().StringVar(&clientCompany, "company", "", "Company name (required)")
	clientsCreateCmd.Flags().StringVar(&clientIndustry, "industry", "", "Industry")
	clientsCreateCmd.Flags().StringVar(&clientCountry, "country", "", "Country")
	clientsCreateCmd.Flags().StringVar(&clientEmail, "email", "", "Contact email")
	clientsCreateCmd.Flags().StringVar(&clientContact, "contact", "", "Primary contact")
	clientsCreateCmd.Flags().StringVar(&clientOfficer, "officer", "", "Compliance officer employee id")
	clientsCreateCmd.Flags().StringVar(&clientNotes, "notes", "", "Notes")

	clientsStageCmd.Flags().StringVar(&clientNotes, "notes", "", "Notes for the lifecycle history entry")

	clientsCmd.AddCommand(clientsListCmd, clientsCreateCmd, clientsStageCmd)
	rootCmd.AddCommand(clientsCmd)
}
