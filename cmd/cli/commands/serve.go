package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/api"
	"github.com/jakechorley/church-ops/pkg/core/auth"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetInt("port")
			if port == 0 {
				port = app.Cfg.ServerPort
			}

			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tokens := auth.NewTokenManager(app.Cfg.JWTSecret, app.Cfg.JWTExpiration)
			server := api.NewServer(app.Database, notifier, tokens, app.Logger)
			return server.ListenAndServe(ctx, port)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (defaults to serverPort from config)")
	return cmd
}
