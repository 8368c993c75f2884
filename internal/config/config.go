package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view of the application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Learning LearningConfig `mapstructure:"learning"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	RulesSeed     string `mapstructure:"rules_seed"`
	MerchantsSeed string `mapstructure:"merchants_seed"`
	SeedOnStartup bool   `mapstructure:"seed_on_startup"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LearningConfig holds rule-generation settings.
type LearningConfig struct {
	RegenerateSchedule string  `mapstructure:"regenerate_schedule"`
	MinKeywordCount    int     `mapstructure:"min_keyword_count"`
	MinKeywordRatio    float64 `mapstructure:"min_keyword_ratio"`
	MaxKeywordsPerRule int     `mapstructure:"max_keywords_per_rule"`
	RecentSampleSize   int     `mapstructure:"recent_sample_size"`
}

// SuggestConfig holds suggestion pipeline settings.
type SuggestConfig struct {
	MaxSuggestions int `mapstructure:"max_suggestions"`
	HistoryWindow  int `mapstructure:"history_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/ledgersense/ledgersense.db")
	v.SetDefault("database.seed_on_startup", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("learning.min_keyword_count", 3)
	v.SetDefault("learning.min_keyword_ratio", 0.75)
	v.SetDefault("learning.max_keywords_per_rule", 5)
	v.SetDefault("learning.recent_sample_size", 10)
	v.SetDefault("suggest.max_suggestions", 5)
	v.SetDefault("suggest.history_window", 50)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load unmarshals the viper state into a typed Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Database.RulesSeed = ExpandPath(cfg.Database.RulesSeed)
	cfg.Database.MerchantsSeed = ExpandPath(cfg.Database.MerchantsSeed)
	return &cfg, nil
}
