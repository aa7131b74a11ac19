package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/core/services"
)

// EligibleVolunteersCmd creates the eligibleVolunteers command
func EligibleVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eligibleVolunteers <position_id>",
		Short: "List the ministry members who can fill a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			volunteers, err := services.GetEligibleVolunteers(app.Ctx, app.Database, session, app.Logger, args[0])
			if err != nil {
				return err
			}

			if len(volunteers) == 0 {
				fmt.Println("\nNo eligible volunteers for this position.")
				return nil
			}

			fmt.Printf("\nFound %d eligible volunteers:\n\n", len(volunteers))
			for _, v := range volunteers {
				fmt.Printf("- %s %s (%s)%s\n", v.FirstName, v.LastName, v.ProfileID, volunteerWarnings(v))
			}
			fmt.Println()
			return nil
		},
	}
}

func volunteerWarnings(v services.EligibleVolunteer) string {
	var warnings []string
	if v.IsUnavailable {
		if v.UnavailableReason != "" {
			warnings = append(warnings, "unavailable: "+v.UnavailableReason)
		} else {
			warnings = append(warnings, "unavailable")
		}
	}
	if v.IsAlreadyAssigned {
		warnings = append(warnings, "also serving as "+strings.Join(v.AssignedPositions, ", "))
	}
	if len(warnings) == 0 {
		return ""
	}
	return " ⚠️  " + strings.Join(warnings, "; ")
}

// AssignVolunteerCmd creates the assignVolunteer command
func AssignVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assignVolunteer <position_id> <profile_id>",
		Short: "Assign a volunteer to a position without inviting them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}
			invalidator, err := app.Invalidator()
			if err != nil {
				return err
			}

			assignment, err := services.AssignVolunteer(app.Ctx, app.Database, invalidator, session, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Assigned (assignment %s). Send invitations to notify them.\n\n", assignment.ID)
			return nil
		},
	}
}

// UnassignVolunteerCmd creates the unassignVolunteer command
func UnassignVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unassignVolunteer <assignment_id>",
		Short: "Remove an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}
			invalidator, err := app.Invalidator()
			if err != nil {
				return err
			}

			if err := services.UnassignVolunteer(app.Ctx, app.Database, invalidator, session, app.Logger, args[0]); err != nil {
				return err
			}

			fmt.Println("\n✓ Assignment removed")
			return nil
		},
	}
}
