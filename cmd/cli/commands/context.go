package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/church-ops/internal/config"
	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/clients/calendarclient"
	"github.com/jakechorley/church-ops/pkg/clients/gmailclient"
	"github.com/jakechorley/church-ops/pkg/clients/pushclient"
	"github.com/jakechorley/church-ops/pkg/core/auth"
	"github.com/jakechorley/church-ops/pkg/core/notify"
	"github.com/jakechorley/church-ops/pkg/core/services"
	"github.com/jakechorley/church-ops/pkg/postgres"
	"github.com/jakechorley/church-ops/pkg/utils"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Ctx      context.Context
	Env      string
	Cfg      *config.Config
	Database *postgres.DB
	Logger   *zap.Logger

	// AsProfileID is the profile commands act as (--as)
	AsProfileID string

	session     *auth.Session
	notifier    *services.Notifier
	invalidator *cache.RedisInvalidator
	redis       *redis.Client
}

// Session resolves the --as profile once per process
func (a *AppContext) Session() (*auth.Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	if a.AsProfileID == "" {
		return nil, fmt.Errorf("this command needs --as <profile_id>")
	}

	session, err := auth.ResolveProfile(a.Ctx, a.Database, a.AsProfileID)
	if err != nil {
		return nil, err
	}
	a.session = session
	return session, nil
}

// Notifier builds the notification channels enabled in config.
// Google channels are only authorized the first time a command needs them.
func (a *AppContext) Notifier() (services.Notifier, error) {
	if a.notifier != nil {
		return *a.notifier, nil
	}

	n := services.Notifier{
		Dispatcher: notify.NewDispatcher(a.Logger),
		BaseURL:    a.Cfg.AppBaseURL,
	}

	if a.Cfg.EmailEnabled() || a.Cfg.CalendarEnabled() {
		oauthConfig, token, err := a.googleToken()
		if err != nil {
			return services.Notifier{}, err
		}

		if a.Cfg.EmailEnabled() {
			a.Logger.Info("Initializing gmail client")
			gmail, err := gmailclient.NewClient(a.Ctx, oauthConfig, token, a.Cfg.GmailUserID, a.Cfg.GmailSender)
			if err != nil {
				return services.Notifier{}, fmt.Errorf("failed to create gmail client: %w", err)
			}
			n.Email = gmail
		}

		if a.Cfg.CalendarEnabled() {
			a.Logger.Info("Initializing calendar client")
			cal, err := calendarclient.NewClient(a.Ctx, oauthConfig, token, a.Cfg.CalendarID, a.Database, a.Logger)
			if err != nil {
				return services.Notifier{}, fmt.Errorf("failed to create calendar client: %w", err)
			}
			n.Calendar = cal
		}
	}

	if a.Cfg.PushGatewayURL != "" {
		n.Push = pushclient.NewClient(a.Cfg.PushGatewayURL, a.Cfg.PushAPIKey)
	}

	invalidator, err := a.Invalidator()
	if err != nil {
		return services.Notifier{}, err
	}
	n.Cache = invalidator

	a.notifier = &n
	return n, nil
}

// Invalidator publishes cache invalidations to Redis when configured
func (a *AppContext) Invalidator() (cache.Invalidator, error) {
	if a.Cfg.RedisAddr == "" {
		return cache.Nop{}, nil
	}
	if a.invalidator != nil {
		return a.invalidator, nil
	}

	client, err := cache.Connect(a.Ctx, a.Cfg.RedisAddr, a.Cfg.RedisPassword, a.Cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.invalidator = cache.NewRedisInvalidator(client, a.Cfg.RedisChannel, a.Logger)
	return a.invalidator, nil
}

func (a *AppContext) googleToken() (*oauth2.Config, *oauth2.Token, error) {
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, nil, err
	}

	source, err := utils.NewTokenSource(oauthConfig, a.Env, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	token, err := source.Token(a.Ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get Google token: %w", err)
	}
	return oauthConfig, token, nil
}

// Close waits for in-flight notifications and releases connections
func (a *AppContext) Close() {
	if a.notifier != nil {
		a.notifier.Dispatcher.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.Database != nil {
		a.Database.Close()
	}
}
