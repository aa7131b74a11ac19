package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/core/services"
)

// PendingInvitationsCmd creates the pendingInvitations command
func PendingInvitationsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pendingInvitations <event_id>...",
		Short: "Count assignments that have not been invited yet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.Session()
			if err != nil {
				return err
			}

			summary, err := services.SummarisePendingInvitations(app.Ctx, app.Database, session, app.Logger, args)
			if err != nil {
				return err
			}

			printPendingSummary(summary)
			return nil
		},
	}
}

func printPendingSummary(s *services.PendingSummary) {
	fmt.Printf("\n%d pending invitations\n", s.Total)
	if s.Total == 0 {
		fmt.Println()
		return
	}

	fmt.Println("\nBy date:")
	for _, d := range s.ByDate {
		fmt.Printf("  %s  %3d\n", d.Date, d.Count)
	}

	fmt.Println("\nBy event:")
	for _, e := range s.ByEvent {
		fmt.Printf("  %-30s %3d\n", e.Title, e.Count)
	}

	fmt.Println("\nBy ministry:")
	for _, m := range s.ByMinistry {
		fmt.Printf("  %-30s %3d\n", m.Name, m.Count)
	}

	fmt.Println("\nBy position:")
	for _, p := range s.ByPosition {
		fmt.Printf("  %-30s %3d\n", p.Title, p.Count)
	}
	fmt.Println()
}
