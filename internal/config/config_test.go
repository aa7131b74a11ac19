package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	return &Config{
		DatabaseURL:   "postgres://localhost:5432/church",
		AppBaseURL:    "https://church.example.com",
		JWTSecret:     testSecret,
		JWTExpiration: time.Hour,
		ServerPort:    8080,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidate_MinimalConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "validation failed"},
		{"bad base url", func(c *Config) { c.AppBaseURL = "not a url" }, "validation failed"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "validation failed"},
		{"push url without key", func(c *Config) { c.PushGatewayURL = "https://push.example.com" }, "validation failed"},
		{"bad redis addr", func(c *Config) { c.RedisAddr = "localhost" }, "validation failed"},
		{"bad sender", func(c *Config) { c.GmailSender = "nobody" }, "validation failed"},
		{"bad schedule", func(c *Config) { c.ServiceSchedule = "FREQ=SOMETIMES" }, "invalid rrule in serviceSchedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_FullConfig(t *testing.T) {
	cfg := validConfig()
	cfg.GmailUserID = "me"
	cfg.GmailSender = "office@example.com"
	cfg.CalendarID = "primary"
	cfg.PushGatewayURL = "https://push.example.com"
	cfg.PushAPIKey = "key"
	cfg.RedisAddr = "localhost:6379"
	cfg.ServiceSchedule = "FREQ=WEEKLY;BYDAY=SU;BYHOUR=10"

	assert.NoError(t, Validate(cfg))
	assert.True(t, cfg.EmailEnabled())
	assert.True(t, cfg.CalendarEnabled())
}

func TestLoadFromPath_AppliesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "church_ops_config.yaml", `
databaseURL: postgres://localhost:5432/church
appBaseURL: https://church.example.com
jwtSecret: `+testSecret+`
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "church-ops:invalidate", cfg.RedisChannel)
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.CalendarEnabled())
}

func TestLoadFromPath_ParsesFields(t *testing.T) {
	path := writeFile(t, t.TempDir(), "church_ops_config.yaml", `
databaseURL: postgres://localhost:5432/church
appBaseURL: https://church.example.com
jwtSecret: `+testSecret+`
jwtExpiration: 2h
serverPort: 9000
gmailUserID: me
redisAddr: localhost:6379
redisChannel: invalidations
serviceSchedule: FREQ=WEEKLY;BYDAY=SU
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "me", cfg.GmailUserID)
	assert.Equal(t, "invalidations", cfg.RedisChannel)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SU", cfg.ServiceSchedule)
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "church_ops_config.yaml", "databaseURL: [unclosed")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/church_ops_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestConfigFileName(t *testing.T) {
	assert.Equal(t, "church_ops_config.yaml", configFileName(""))
	assert.Equal(t, "church_ops_config.test.yaml", configFileName("test"))
}

func TestLoadWithEnv_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "church_ops_config.test.yaml", `
databaseURL: postgres://localhost:5432/church
appBaseURL: https://church.example.com
jwtSecret: `+testSecret+`
`)
	t.Chdir(dir)

	cfg, err := LoadWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/church", cfg.DatabaseURL)
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "oauthClient.json", `{"installed": {
			"client_id": "id.apps.googleusercontent.com",
			"project_id": "church-ops",
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": "https://oauth2.googleapis.com/token",
			"client_secret": "secret",
			"redirect_uris": ["http://localhost"]
		}}`)

		cfg, err := LoadOAuthClientFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, "church-ops", cfg.Installed.ProjectID)
	})

	t.Run("missing client id", func(t *testing.T) {
		path := writeFile(t, dir, "oauthClient.bad.json", `{"installed": {
			"project_id": "church-ops",
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": "https://oauth2.googleapis.com/token",
			"client_secret": "secret",
			"redirect_uris": ["http://localhost"]
		}}`)

		_, err := LoadOAuthClientFromPath(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oauth client validation failed")
	})
}
