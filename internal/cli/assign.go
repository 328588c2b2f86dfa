package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stampedhq/onboard/internal/assignment"
	"github.com/stampedhq/onboard/pkg/models"
)

var (
	assignJSON   bool
	assignVendor bool
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Manage compliance officer assignments",
}

var assignClientCmd = &cobra.Command{
	Use:               "client <client-id> <officer-id>",
	Short:             "Assign a compliance officer to a client",
	ValidArgsFunction: completeClientIDs,
	Args:              cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign(cmd, args[0], args[1], models.EntityClient)
	},
}

var assignVendorCmd = &cobra.Command{
	Use:   "vendor <vendor-id> <officer-id>",
	Short: "Assign a compliance officer to a vendor",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssign(cmd, args[0], args[1], models.EntityVendor)
	},
}

var assignShowCmd = &cobra.Command{
	Use:   "show <entity-id>",
	Short: "Show the compliance officer responsible for an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Directory == nil {
			return fmt.Errorf("assignment directory not initialized")
		}
		entityType := models.EntityClient
		if assignVendor {
			entityType = models.EntityVendor
		}
		officer, err := Directory.GetAssignedOfficer(cmd.Context(), args[0], entityType)
		if errors.Is(err, assignment.ErrNotAssigned) {
			fmt.Fprintf(cmd.OutOrStdout(), "No compliance officer assigned to %s %s\n", entityType, args[0])
			return nil
		}
		if err != nil {
			return fmt.Errorf("looking up officer for %s: %w", args[0], err)
		}
		if assignJSON {
			return printJSON(cmd.OutOrStdout(), officer)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s <%s>\n", entityType, args[0], officer.Name, officer.Email)
		return nil
	},
}

var assignOfficersCmd = &cobra.Command{
	Use:   "officers",
	Short: "List compliance officers and their workload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Directory == nil {
			return fmt.Errorf("assignment directory not initialized")
		}
		officers, err := Directory.GetAllComplianceOfficers(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing officers: %w", err)
		}
		out := cmd.OutOrStdout()
		if assignJSON {
			return printJSON(out, officers)
		}
		fmt.Fprintf(out, "%-8s %-20s %-30s %s\n", "ID", "NAME", "EMAIL", "ASSIGNMENTS")
		for _, o := range officers {
			assigned, err := Directory.GetAssignmentsForEmployee(cmd.Context(), o.ID)
			if err != nil {
				return fmt.Errorf("listing assignments for %s: %w", o.ID, err)
			}
			fmt.Fprintf(out, "%-8s %-20s %-30s %d\n", o.ID, o.Name, o.Email, len(assigned))
		}
		return nil
	},
}

func runAssign(cmd *cobra.Command, entityID, officerID string, entityType models.EntityType) error {
	if Directory == nil {
		return fmt.Errorf("assignment directory not initialized")
	}
	if _, err := Directory.GetEmployeeByID(cmd.Context(), officerID); err != nil {
		return fmt.Errorf("assigning %s to %s: %w", officerID, entityID, err)
	}
	var err error
	if entityType == models.EntityVendor {
		err = Directory.AssignOfficerToVendor(cmd.Context(), entityID, officerID)
	} else {
		err = Directory.AssignOfficerToClient(cmd.Context(), entityID, officerID)
	}
	if err != nil {
		return fmt.Errorf("assigning %s to %s: %w", officerID, entityID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s %s\n", officerID, entityType, entityID)
	return nil
}

func init() {
	assignCmd.PersistentFlags().BoolVar(&assignJSON, "json", false, "Output as JSON")
	assignShowCmd.Flags().BoolVar(&assignVendor, "vendor", false, "Look up a vendor instead of a client")

	assignCmd.AddCommand(assignClientCmd, assignVendorCmd, assignShowCmd, assignOfficersCmd)
	rootCmd.AddCommand(assignCmd)
}
