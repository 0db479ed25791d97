// Package config loads runtime settings from the environment. A .env file
// in the working directory is read first; real environment variables win.
package config

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
)

// Config is the full set of VY_* settings.
type Config struct {
	DB          string `env:"VY_DB" envDefault:"vy.db"`
	LogLevel    string `env:"VY_LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"VY_LOG_FORMAT" envDefault:"text"`
	MetricsAddr string `env:"VY_METRICS_ADDR"`

	FeedInterval time.Duration `env:"VY_FEED_INTERVAL" envDefault:"5s"`
	Simulate     bool          `env:"VY_SIMULATE" envDefault:"true"`
	Seed         int64         `env:"VY_SEED" envDefault:"0"`
	RepliesFile  string        `env:"VY_REPLIES_FILE"`

	TokenLimit     int64   `env:"VY_TOKEN_LIMIT" envDefault:"50000"`
	TokenCost      float64 `env:"VY_TOKEN_COST" envDefault:"0.002"`
	UsageResetCron string  `env:"VY_USAGE_RESET_CRON" envDefault:"0 0 1 * *"`

	TweenSteps    int           `env:"VY_TWEEN_STEPS" envDefault:"60"`
	TweenDuration time.Duration `env:"VY_TWEEN_DURATION" envDefault:"1s"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	bad := func(reason string) error {
		return &model.ConfigurationError{Component: "config", Reason: reason}
	}
	if c.DB == "" {
		return bad("VY_DB is empty")
	}
	if c.FeedInterval <= 0 {
		return bad("VY_FEED_INTERVAL must be positive")
	}
	if c.TweenSteps < 1 {
		return bad("VY_TWEEN_STEPS must be at least 1")
	}
	if c.TweenDuration < 0 {
		return bad("VY_TWEEN_DURATION must not be negative")
	}
	if c.TokenLimit <= 0 {
		return bad("VY_TOKEN_LIMIT must be positive")
	}
	if c.TokenCost < 0 {
		return bad("VY_TOKEN_COST must not be negative")
	}
	if !gronx.New().IsValid(c.UsageResetCron) {
		return bad(fmt.Sprintf("VY_USAGE_RESET_CRON %q is not a valid cron expression", c.UsageResetCron))
	}
	return nil
}

// Budget returns the token budget described by the config.
func (c *Config) Budget() metrics.Budget {
	return metrics.Budget{
		MonthlyLimit: c.TokenLimit,
		CostPerToken: c.TokenCost,
		ResetCron:    c.UsageResetCron,
	}
}
