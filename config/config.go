package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/aghpb/aghpb"
	"github.com/s0up4200/aghpb/download"
)

// EnvPrefix prefixes every environment override, e.g. AGHPB_API_URL
const EnvPrefix = "AGHPB"

// Load loads the configuration. An explicit configPath must exist; otherwise
// the standard locations are searched and a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	// A .env file is optional
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".aghpb"))
		}

		// Check /etc
		v.AddConfigPath("/etc/aghpb/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.url", aghpb.DefaultBaseURL)
	v.SetDefault("api.timeout", aghpb.DefaultTimeout)
	v.SetDefault("api.user_agent", aghpb.DefaultUserAgent)
	v.SetDefault("api.rate_limit", 0.0)
	v.SetDefault("api.rate_burst", 1)

	// Download defaults
	v.SetDefault("download.dir", ".")
	v.SetDefault("download.concurrency", download.DefaultConcurrency)
	v.SetDefault("download.overwrite", false)

	// Filter defaults
	v.SetDefault("filter.presets", map[string]string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	// Update defaults
	v.SetDefault("update.repository", "s0up4200/aghpb")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}

	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}

	if cfg.Download.Concurrency < 1 || cfg.Download.Concurrency > download.MaxConcurrency {
		return fmt.Errorf("download.concurrency must be between 1 and %d", download.MaxConcurrency)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if cfg.Update.Repository != "" && strings.Count(cfg.Update.Repository, "/") != 1 {
		return fmt.Errorf("update.repository must be in owner/name form: %s", cfg.Update.Repository)
	}

	return nil
}
