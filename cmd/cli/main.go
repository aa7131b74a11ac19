package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/cmd/cli/commands"
	"github.com/jakechorley/church-ops/internal/config"
	"github.com/jakechorley/church-ops/pkg/core/apperr"
	"github.com/jakechorley/church-ops/pkg/postgres"
	"github.com/jakechorley/church-ops/pkg/utils/logging"
)

var (
	env         string
	asProfileID string
	verbose     bool
	app         *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Church Ops CLI - Staff events and invite volunteers",
		Long:  `A CLI tool for assigning volunteers to event positions, sending invitations and recording responses.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Name() == "serve")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
				if app.Logger != nil {
					_ = app.Logger.Sync()
				}
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&asProfileID, "as", "", "Profile to act as")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	// app is filled in by PersistentPreRunE before any RunE executes
	app = &commands.AppContext{}
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.IssueTokenCmd(app))
	rootCmd.AddCommand(commands.EligibleVolunteersCmd(app))
	rootCmd.AddCommand(commands.AssignVolunteerCmd(app))
	rootCmd.AddCommand(commands.UnassignVolunteerCmd(app))
	rootCmd.AddCommand(commands.SendInvitationsCmd(app))
	rootCmd.AddCommand(commands.SendBulkInvitationsCmd(app))
	rootCmd.AddCommand(commands.RespondToInvitationCmd(app))
	rootCmd.AddCommand(commands.PendingInvitationsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s\n", errorMessage(err))
		if app.Logger != nil {
			app.Logger.Error("Command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}

// errorMessage shows action failures by their user-facing message; operators see store causes in full
func errorMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindStore {
		return e.Message
	}
	return err.Error()
}

// initApp sets up logger, config and database
func initApp(serving bool) error {
	var err error
	app.Ctx = context.Background()
	app.Env = env
	app.AsProfileID = asProfileID

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose, JSONConsole: serving})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Logger.Info("Connecting to database")
	app.Database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Logger.Info("Database initialized successfully")

	return nil
}
