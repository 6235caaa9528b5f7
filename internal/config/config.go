package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const DefaultSQLiteURL = "sqlite://bot_database.db"

type Config struct {
	Version  string   `json:"version" mapstructure:"version"`
	Database Database `json:"database" mapstructure:"database"`
	Seed     Seed     `json:"seed" mapstructure:"seed"`
	Log      Log      `json:"log" mapstructure:"log"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Seed struct {
	Locale     string `json:"locale" mapstructure:"locale"`
	WindowDays int    `json:"window_days" mapstructure:"window_days"` // historical window for timestamps
	Selection  string `json:"selection" mapstructure:"selection"`     // round_robin or uniform
	RandomSeed uint64 `json:"random_seed" mapstructure:"random_seed"` // 0 = random per run
	PlanFile   string `json:"plan_file" mapstructure:"plan_file"`
}

type Log struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

var (
	supportedProviders  = []string{"sqlite", "sqlite3", "postgresql", "postgres", "mysql", "memory"}
	supportedSelections = []string{"round_robin", "uniform"}
	supportedLocales    = []string{"en", "ru"}
)

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Database.Provider == "" {
		c.Database.Provider = "sqlite"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.Seed.Locale == "" {
		c.Seed.Locale = "en"
	}
	if c.Seed.WindowDays <= 0 {
		c.Seed.WindowDays = 365
	}
	if c.Seed.Selection == "" {
		c.Seed.Selection = "round_robin"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// GetDatabaseURL reads the connection URL from the configured environment
// variable. SQLite and the memory store fall back to a local default.
func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL != "" {
		return dbURL, nil
	}
	switch c.Database.Provider {
	case "sqlite", "sqlite3":
		return DefaultSQLiteURL, nil
	case "memory":
		return "memory://", nil
	}
	return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
}

func (c *Config) Validate() error {
	if !slices.Contains(supportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}
	if !slices.Contains(supportedSelections, c.Seed.Selection) {
		return fmt.Errorf("unsupported selection policy: %s. Supported policies: %v", c.Seed.Selection, supportedSelections)
	}
	if !slices.Contains(supportedLocales, strings.ToLower(c.Seed.Locale)) {
		return fmt.Errorf("unsupported locale: %s. Supported locales: %v", c.Seed.Locale, supportedLocales)
	}
	if c.Seed.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	return nil
}
