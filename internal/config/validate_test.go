package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := Default()
	cfg.TMDB.AccessToken = "tok"
	return cfg
}

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidate_TokenOptional(t *testing.T) {
	cfg := Default()
	assert.True(t, containsError(cfg.Validate(), "tmdb.access_token"))
	assert.Empty(t, cfg.validate(false))
}

func TestValidate_MinimalValid(t *testing.T) {
	errs := validConfig().Validate()
	assert.Empty(t, errs, "expected no errors for minimal valid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.TMDB.AccessToken = "" }, "tmdb.access_token"},
		{"unresolved token", func(c *Config) { c.TMDB.AccessToken = "${TMDB_ACCESS_TOKEN}" }, "tmdb.access_token"},
		{"port too high", func(c *Config) { c.Server.Port = 99999 }, "server.port"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "server.log_level"},
		{"bad log format", func(c *Config) { c.Server.LogFormat = "xml" }, "server.log_format"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, "database.dsn"},
		{"relative base url", func(c *Config) { c.TMDB.BaseURL = "api.themoviedb.org" }, "tmdb.base_url"},
		{"negative freshness", func(c *Config) { c.Cache.FreshnessWindow = -time.Hour }, "cache.freshness_window"},
		{"related limit too high", func(c *Config) { c.Cache.RelatedLimit = 6 }, "cache.related_limit"},
		{"related limit negative", func(c *Config) { c.Cache.RelatedLimit = -1 }, "cache.related_limit"},
		{"retention below freshness", func(c *Config) { c.Cache.Retention = time.Hour }, "cache.retention"},
		{"negative prune interval", func(c *Config) { c.Cache.PruneInterval = -time.Minute }, "cache.prune_interval"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }, "tracing.sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			assert.True(t, containsError(errs, tt.want), "expected %s error, got %v", tt.want, errs)
		})
	}
}

func TestValidate_MemoryDriverNeedsNothing(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memory"
	cfg.Database.Path = ""
	assert.Empty(t, cfg.Validate())
}
