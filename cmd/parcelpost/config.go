package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/artpar/parcelpost/internal/shell/auspost"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Carrier  CarrierConfig  `mapstructure:"carrier"`
	Shipping ShippingConfig `mapstructure:"shipping"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Log      LogConfig      `mapstructure:"log"`
}

// CarrierConfig holds carrier API credentials and endpoint configuration.
type CarrierConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Testbed       bool          `mapstructure:"testbed"` // use the carrier's test environment when base_url is empty
	APIKey        string        `mapstructure:"api_key"`
	Password      string        `mapstructure:"password"`
	AccountNumber string        `mapstructure:"account_number"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ResolvedBaseURL returns the endpoint the client should call.
func (c CarrierConfig) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Testbed {
		return auspost.TestbedURL
	}
	return auspost.ProductionURL
}

// ShippingConfig holds lifecycle behaviour settings.
type ShippingConfig struct {
	// StrictCorrelation fails a lodgement when returned items and local
	// parcels do not line up one to one.
	StrictCorrelation bool `mapstructure:"strict_correlation"`
}

// SandboxConfig holds the fake carrier server configuration.
type SandboxConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	LabelHost string `mapstructure:"label_host"`
}

// Address returns the sandbox address in host:port format.
func (c SandboxConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("carrier.base_url", "")
	v.SetDefault("carrier.testbed", false)
	v.SetDefault("carrier.api_key", "")
	v.SetDefault("carrier.password", "")
	v.SetDefault("carrier.account_number", "")
	v.SetDefault("carrier.timeout", "30s")
	v.SetDefault("shipping.strict_correlation", false)
	v.SetDefault("sandbox.host", "127.0.0.1")
	v.SetDefault("sandbox.port", 8089)
	v.SetDefault("sandbox.label_host", "http://127.0.0.1:8089")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("PARCELPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. Logs go
// to stderr so command output on stdout stays machine readable.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
