package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Fatalf("expected default backend sqlite, got %s", cfg.DataBackend)
	}
	if cfg.Locale != "de" {
		t.Fatalf("expected default locale de, got %s", cfg.Locale)
	}
	if cfg.ChartScaleRatio != 10 || cfg.ChartScaleRange != 1000 {
		t.Fatalf("unexpected default scale thresholds: %v / %v", cfg.ChartScaleRatio, cfg.ChartScaleRange)
	}
	if !cfg.TrendExcludeAutoGenerated {
		t.Fatalf("auto-generated entries should be excluded from trends by default")
	}
	if cfg.AutoCreateSpec != "5 0 1 * *" {
		t.Fatalf("unexpected default auto-create spec %s", cfg.AutoCreateSpec)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("LOCALE", "en")
	t.Setenv("CHART_SCALE_RATIO", "5")
	t.Setenv("TREND_EXCLUDE_AUTO_GENERATED", "false")
	t.Setenv("DASHBOARD_CACHE_TTL", "2m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Fatalf("expected backend memory, got %s", cfg.DataBackend)
	}
	if cfg.Locale != "en" {
		t.Fatalf("expected locale en, got %s", cfg.Locale)
	}
	if cfg.ChartScaleRatio != 5 {
		t.Fatalf("expected scale ratio 5, got %v", cfg.ChartScaleRatio)
	}
	if cfg.TrendExcludeAutoGenerated {
		t.Fatalf("expected trend exclusion disabled")
	}
	if cfg.DashboardCacheTTL != 2*time.Minute {
		t.Fatalf("expected 2m cache TTL, got %v", cfg.DashboardCacheTTL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "must be between"},
		{"unknown backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "invalid AMQP URL scheme"},
		{"empty exchange", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "" }, "exchange name cannot be empty"},
		{"bad locale", func(c *Config) { c.Locale = "not a locale" }, "invalid locale"},
		{"ratio too small", func(c *Config) { c.ChartScaleRatio = 1 }, "invalid chart scale ratio"},
		{"negative range", func(c *Config) { c.ChartScaleRange = -1 }, "invalid chart scale range"},
		{"bad cron spec", func(c *Config) { c.AutoCreateSpec = "every day" }, "invalid auto-create spec"},
		{"zero cache size", func(c *Config) { c.DashboardCacheSize = 0 }, "invalid dashboard cache size"},
		{"tiny cache TTL", func(c *Config) { c.DashboardCacheTTL = time.Millisecond }, "invalid dashboard cache TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			cfg.DataBackend = "memory" // avoid touching the filesystem
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error containing %q, got %v", tc.message, err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Load()
	cfg.DataBackend = "memory"
	cfg.Port = "bad"
	cfg.Locale = "also bad"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "invalid locale") {
		t.Fatalf("expected both errors reported, got %v", err)
	}
}

func TestLanguageTag(t *testing.T) {
	cfg := Load()
	if cfg.LanguageTag().String() != "de" {
		t.Fatalf("expected German tag, got %v", cfg.LanguageTag())
	}
	cfg.Locale = "???"
	if cfg.LanguageTag().String() != "de" {
		t.Fatalf("unparsable locale must fall back to German, got %v", cfg.LanguageTag())
	}
}
