package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	defaultJWTExpiration = 24 * time.Hour
	defaultServerPort    = 8080
	defaultRedisChannel  = "church-ops:invalidate"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL   string        `yaml:"databaseURL" validate:"required"`
	AppBaseURL    string        `yaml:"appBaseURL" validate:"required,url"`
	JWTSecret     string        `yaml:"jwtSecret" validate:"required,min=32"`
	JWTExpiration time.Duration `yaml:"jwtExpiration,omitempty" validate:"gte=0"`
	ServerPort    int           `yaml:"serverPort,omitempty" validate:"omitempty,min=1,max=65535"`

	// Email is disabled when GmailUserID is empty
	GmailUserID string `yaml:"gmailUserID,omitempty"`
	GmailSender string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`

	// Calendar sync is disabled when CalendarID is empty
	CalendarID string `yaml:"calendarID,omitempty"`

	// Push is disabled when PushGatewayURL is empty
	PushGatewayURL string `yaml:"pushGatewayURL,omitempty" validate:"omitempty,url"`
	PushAPIKey     string `yaml:"pushAPIKey,omitempty" validate:"required_with=PushGatewayURL"`

	// Cache invalidation events are dropped when RedisAddr is empty
	RedisAddr     string `yaml:"redisAddr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty" validate:"gte=0"`
	RedisChannel  string `yaml:"redisChannel,omitempty"`

	// ServiceSchedule is the rrule expanded for bulk invitations by schedule
	ServiceSchedule string `yaml:"serviceSchedule,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from church_ops_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" will look for "church_ops_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findFile(configFileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTExpiration == 0 {
		cfg.JWTExpiration = defaultJWTExpiration
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaultServerPort
	}
	if cfg.RedisChannel == "" {
		cfg.RedisChannel = defaultRedisChannel
	}
}

// Validate validates the configuration struct and checks the service schedule rrule
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.ServiceSchedule != "" {
		if _, err := rrule.StrToRRule(cfg.ServiceSchedule); err != nil {
			return fmt.Errorf("invalid rrule in serviceSchedule: %w", err)
		}
	}

	return nil
}

// EmailEnabled reports whether invitation emails can be sent
func (c *Config) EmailEnabled() bool {
	return c.GmailUserID != ""
}

// CalendarEnabled reports whether accepted events are mirrored to Google Calendar
func (c *Config) CalendarEnabled() bool {
	return c.CalendarID != ""
}

func configFileName(env string) string {
	if env == "" {
		return "church_ops_config.yaml"
	}
	return "church_ops_config." + env + ".yaml"
}

// findFile searches for a file in the current directory, then the home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
