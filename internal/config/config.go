// Package config loads process-wide configuration for the topping
// optimizer CLI, grounded in DimaJoyti-go-coffee's viper-backed config
// packages (pkg/config, hft-bot/pkg/config): flags and environment
// override a YAML file, never the reverse.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SearchConfig carries the concurrency/resource defaults from spec.md §5.
type SearchConfig struct {
	SoftDeadline     time.Duration `mapstructure:"soft_deadline"`
	HardDeadline     time.Duration `mapstructure:"hard_deadline"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// LoggingConfig controls the obslog encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the process-wide configuration root.
type Config struct {
	Search  SearchConfig  `mapstructure:"search"`
	Logging LoggingConfig `mapstructure:"logging"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("search.soft_deadline", 20*time.Minute)
	v.SetDefault("search.hard_deadline", 22*time.Minute)
	v.SetDefault("search.progress_interval", 500*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load resolves configuration from built-in defaults, then the file at
// configPath (if non-empty), then the CRK_TOPPINGS-prefixed environment, in
// ascending precedence order matching viper's own resolution order.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("CRK_TOPPINGS")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
