package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/core/auth"
)

// IssueTokenCmd creates the issueToken command
func IssueTokenCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "issueToken <profile_id>",
		Short: "Issue an API session token for a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := auth.ResolveProfile(app.Ctx, app.Database, args[0])
			if err != nil {
				return err
			}
			if session.UserID == "" {
				return fmt.Errorf("profile %s has no user account", args[0])
			}

			tokens := auth.NewTokenManager(app.Cfg.JWTSecret, app.Cfg.JWTExpiration)
			token, err := tokens.Issue(session.UserID)
			if err != nil {
				return err
			}

			fmt.Println(token)
			return nil
		},
	}
}
