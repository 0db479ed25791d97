package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vyaapaar/dashcore/pkg/model"
)

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.DB != "vy.db" || c.FeedInterval != 5*time.Second || !c.Simulate {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.TweenSteps != 60 || c.TweenDuration != time.Second {
		t.Fatalf("tween defaults = %d/%s", c.TweenSteps, c.TweenDuration)
	}
	b := c.Budget()
	if b.MonthlyLimit != 50000 || b.CostPerToken != 0.002 || b.ResetCron != "0 0 1 * *" {
		t.Fatalf("budget = %+v", b)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	c, err := LoadFrom(map[string]string{
		"VY_DB":               "/tmp/shop.db",
		"VY_FEED_INTERVAL":    "750ms",
		"VY_SIMULATE":         "false",
		"VY_SEED":             "42",
		"VY_TWEEN_STEPS":      "30",
		"VY_USAGE_RESET_CRON": "0 0 * * 1",
		"VY_LOG_FORMAT":       "json",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.DB != "/tmp/shop.db" || c.FeedInterval != 750*time.Millisecond || c.Simulate || c.Seed != 42 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.TweenSteps != 30 || c.UsageResetCron != "0 0 * * 1" || c.LogFormat != "json" {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"zero steps":    {"VY_TWEEN_STEPS": "0"},
		"bad cron":      {"VY_USAGE_RESET_CRON": "monthly please"},
		"zero interval": {"VY_FEED_INTERVAL": "0s"},
		"zero limit":    {"VY_TOKEN_LIMIT": "0"},
		"negative cost": {"VY_TOKEN_COST": "-1"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			var ce *model.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestLoadFrom_ParseError(t *testing.T) {
	if _, err := LoadFrom(map[string]string{"VY_FEED_INTERVAL": "soon"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VY_TOKEN_LIMIT=1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("VY_SEED", "9")
	os.Unsetenv("VY_TOKEN_LIMIT")
	t.Cleanup(func() { os.Unsetenv("VY_TOKEN_LIMIT") })

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TokenLimit != 1234 || c.Seed != 9 {
		t.Fatalf("TokenLimit=%d Seed=%d", c.TokenLimit, c.Seed)
	}
}
