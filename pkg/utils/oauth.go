package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/church-ops/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".church-ops/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
	tokenInfoURL   = "https://oauth2.googleapis.com/tokeninfo"
)

// OAuth scopes for Google APIs
const (
	ScopeGmailSend      = "https://www.googleapis.com/auth/gmail.send"
	ScopeCalendarEvents = "https://www.googleapis.com/auth/calendar.events"
)

// RequiredScopes returns the scopes the notification channels need
func RequiredScopes() []string {
	return []string{ScopeGmailSend, ScopeCalendarEvents}
}

// GetOAuthConfig creates an OAuth2 config from the OAuth client configuration,
// redirecting to the local callback server
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	oauthConfigJSON, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(oauthConfigJSON, RequiredScopes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)
	return googleConfig, nil
}

// TokenSource obtains a Google token for one environment, persisting it under the token directory
type TokenSource struct {
	config    *oauth2.Config
	store     *TokenStore
	tokenInfo *resty.Client
	logger    *zap.Logger

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewTokenSource creates a token source for env
func NewTokenSource(oauthConfig *oauth2.Config, env string, logger *zap.Logger) (*TokenSource, error) {
	store, err := NewTokenStore(env)
	if err != nil {
		return nil, err
	}
	return &TokenSource{
		config:    oauthConfig,
		store:     store,
		tokenInfo: resty.New().SetTimeout(10 * time.Second),
		logger:    logger,
	}, nil
}

// Token returns a valid token, refreshing a stored one or running the browser flow when needed.
// Only one flow runs at a time.
func (s *TokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.cached.Valid() {
		return s.cached, nil
	}

	if token := s.storedToken(ctx); token != nil {
		s.cached = token
		return token, nil
	}

	s.logger.Info("No valid Google token found, starting OAuth flow")
	authURL := s.config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	if err := s.validateScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if err := s.store.Save(token); err != nil {
		s.logger.Warn("Failed to save token", zap.Error(err))
	}
	s.cached = token
	return token, nil
}

// storedToken returns the persisted token if it is usable, refreshing it when expired.
// An unusable token file is removed.
func (s *TokenSource) storedToken(ctx context.Context) *oauth2.Token {
	token, err := s.store.Load()
	if err != nil {
		s.logger.Warn("Failed to load stored token", zap.Error(err))
		return nil
	}
	if token == nil {
		return nil
	}

	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		refreshed, err := s.config.TokenSource(ctx, token).Token()
		if err != nil {
			s.logger.Warn("Failed to refresh stored token", zap.Error(err))
			return nil
		}
		token = refreshed
		if err := s.store.Save(token); err != nil {
			s.logger.Warn("Failed to save refreshed token", zap.Error(err))
		}
	}

	if err := s.validateScopes(ctx, token); err != nil {
		s.logger.Warn("Stored token is missing scopes, starting a new flow", zap.Error(err))
		if err := s.store.Delete(); err != nil {
			s.logger.Warn("Failed to delete token", zap.Error(err))
		}
		return nil
	}
	return token
}

// validateScopes asks Google's tokeninfo endpoint which scopes the token carries
func (s *TokenSource) validateScopes(ctx context.Context, token *oauth2.Token) error {
	var info struct {
		Scope string `json:"scope"`
	}
	resp, err := s.tokenInfo.R().
		SetContext(ctx).
		SetQueryParam("access_token", token.AccessToken).
		SetResult(&info).
		Get(tokenInfoURL)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	if missing := missingScopes(strings.Fields(info.Scope), RequiredScopes()); len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}
	return nil
}

func missingScopes(granted, required []string) []string {
	var missing []string
	for _, scope := range required {
		if !slices.Contains(granted, scope) {
			missing = append(missing, scope)
		}
	}
	return missing
}

// listenForAuthCallback serves the redirect URI until Google sends the authorization code
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- errors.New("no authorization code received")
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		codeChan <- code
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", AuthPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error
	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	return code, authErr
}

// TokenStore persists one environment's token as JSON on disk
type TokenStore struct {
	path string
}

// NewTokenStore returns the store for env under the user's home directory
func NewTokenStore(env string) (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewTokenStoreAt(filepath.Join(homeDir, tokenDirName), env), nil
}

// NewTokenStoreAt returns the store for env inside dir
func NewTokenStoreAt(dir, env string) *TokenStore {
	if env == "" {
		env = "default"
	}
	return &TokenStore{path: filepath.Join(dir, fmt.Sprintf("token-%s.json", env))}
}

// Load returns the stored token, or nil if none has been saved
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// Save writes the token readable by the owner only
func (s *TokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the stored token; a missing file is not an error
func (s *TokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
