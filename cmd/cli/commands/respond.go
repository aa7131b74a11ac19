package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/core/services"
	"github.com/jakechorley/church-ops/pkg/db"
)

// RespondToInvitationCmd creates the respondToInvitation command
func RespondToInvitationCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "respondToInvitation <assignment_id> <accepted|declined>",
		Short: "Accept or decline an invitation as the --as profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}
			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			result, err := services.RespondToInvitation(app.Ctx, app.Database, notifier, session, app.Logger,
				args[0], db.AssignmentStatus(args[1]))
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Invitation %s at %s\n\n", result.Status, result.RespondedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}
