// Package config loads service configuration from the environment,
// optionally overlaid by a YAML config file.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Preview   PreviewConfig   `yaml:"preview"`
	Edge      EdgeConfig      `yaml:"edge"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8400" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// PreviewConfig holds preview orchestration configuration
type PreviewConfig struct {
	// AllowedOrigin is the exact origin preview clients must present
	AllowedOrigin string        `envconfig:"PREVIEW_ALLOWED_ORIGIN" default:"http://localhost:3000" yaml:"allowed_origin"`
	IntentTimeout time.Duration `envconfig:"PREVIEW_INTENT_TIMEOUT" default:"30s" yaml:"intent_timeout"`
	BundleDir     string        `envconfig:"PREVIEW_BUNDLE_DIR" default:"/var/lib/previewd/bundles" yaml:"bundle_dir"`
	SeedDir       string        `envconfig:"PREVIEW_SEED_DIR" default:"" yaml:"seed_dir"`
	ArtifactDir   string        `envconfig:"PREVIEW_ARTIFACT_DIR" default:"/var/lib/previewd/artifacts" yaml:"artifact_dir"`
	ValidateJS    bool          `envconfig:"PREVIEW_VALIDATE_JS" default:"true" yaml:"validate_js"`
}

// EdgeConfig holds edge-function invocation configuration. An empty
// base URL disables real edge calls; edge intents then get the stub
// response.
type EdgeConfig struct {
	BaseURL  string        `envconfig:"EDGE_BASE_URL" default:"" yaml:"base_url"`
	Timeout  time.Duration `envconfig:"EDGE_TIMEOUT" default:"10s" yaml:"timeout"`
	RetryMax int           `envconfig:"EDGE_RETRY_MAX" default:"2" yaml:"retry_max"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads environment configuration, then overlays values from
// a YAML config file. File values win over environment values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8400",
			Host: "0.0.0.0",
		},
		Preview: PreviewConfig{
			AllowedOrigin: "http://localhost:3000",
			IntentTimeout: 30 * time.Second,
			BundleDir:     "/var/lib/previewd/bundles",
			ArtifactDir:   "/var/lib/previewd/artifacts",
			ValidateJS:    true,
		},
		Edge: EdgeConfig{
			Timeout:  10 * time.Second,
			RetryMax: 2,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
