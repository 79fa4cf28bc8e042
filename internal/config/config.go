// Package config loads process configuration: embedded defaults, then the YAML config
// file, then environment variables (optionally from a .env file), then validation.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/h0rv/flowcanvas/internal/kv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Transport names.
const (
	TransportREST    = "rest"
	TransportGraphQL = "graphql"
)

type CallerConfig struct {
	AccountID  string `yaml:"account_id" env:"ACCOUNT_ID"`
	CloudID    string `yaml:"cloud_id" env:"CLOUD_ID"`
	ProjectKey string `yaml:"project_key" env:"PROJECT_KEY"`
}

type JiraConfig struct {
	BaseURL      string        `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Email        string        `yaml:"email" env:"EMAIL" validate:"omitempty,email"`
	APIToken     string        `yaml:"api_token" env:"API_TOKEN"`
	TokenCommand string        `yaml:"token_command" env:"TOKEN_COMMAND"`
	Transport    string        `yaml:"transport" env:"TRANSPORT" validate:"oneof=rest graphql"`
	GatewayURL   string        `yaml:"gateway_url" env:"GATEWAY_URL" validate:"omitempty,url"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type SearchConfig struct {
	DaysBack        int  `yaml:"days_back" env:"DAYS_BACK" validate:"min=1,max=3650"`
	AlwaysBoundTime bool `yaml:"always_bound_time" env:"ALWAYS_BOUND_TIME"`
}

type Config struct {
	Env      string       `yaml:"env" env:"FLOWCANVAS_ENV" validate:"oneof=dev prod"`
	LogLevel string       `yaml:"log_level" env:"FLOWCANVAS_LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFile  string       `yaml:"log_file" env:"FLOWCANVAS_LOG_FILE"`
	HTTPAddr string       `yaml:"http_addr" env:"FLOWCANVAS_HTTP_ADDR" validate:"required"`
	Caller   CallerConfig `yaml:"caller" envPrefix:"FLOWCANVAS_"`
	Jira     JiraConfig   `yaml:"jira" envPrefix:"JIRA_"`
	Search   SearchConfig `yaml:"search" envPrefix:"FLOWCANVAS_SEARCH_"`
	Store    kv.Config    `yaml:"store" envPrefix:"FLOWCANVAS_STORE_"`
}

// DefaultConfigPath is the config file read when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "flowcanvas", "config.yaml")
}

// DefaultStorePath is the sqlite database used when the store path is unset.
func DefaultStorePath() string {
	return filepath.Join(xdg.DataHome, "flowcanvas", "flowcanvas.db")
}

// DefaultLogPath is where logs go while the terminal UI owns the screen.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "flowcanvas", "flowcanvas.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load builds the configuration. An empty path means DefaultConfigPath, which may be
// missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// embedded defaults only
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Store.Driver == kv.DriverSQLite && cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Jira.Transport == TransportGraphQL && cfg.Caller.CloudID == "" {
		return errors.New("invalid config: caller.cloud_id is required for the graphql transport")
	}
	return nil
}

// WriteDefaults writes the embedded default configuration to path, creating parent
// directories. An existing file is left alone.
func WriteDefaults(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}
