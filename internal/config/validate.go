package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validLogFormats = map[string]bool{
	"text": true, "json": true, "": true,
}

var validDrivers = map[string]bool{
	"sqlite": true, "postgres": true, "memory": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	return c.validate(true)
}

func (c *Config) validate(requireToken bool) []string {
	var errs []string

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if !validLogFormats[c.Server.LogFormat] {
		errs = append(errs, fmt.Sprintf("server.log_format: must be text or json; got %q", c.Server.LogFormat))
	}

	// Database validation
	if !validDrivers[c.Database.Driver] {
		errs = append(errs, fmt.Sprintf("database.driver: must be one of sqlite, postgres, memory; got %q", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, "database.dsn: required when driver is postgres")
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		errs = append(errs, "database.path: required when driver is sqlite")
	}

	// TMDB validation
	if requireToken && (c.TMDB.AccessToken == "" || strings.HasPrefix(c.TMDB.AccessToken, "${")) {
		errs = append(errs, "tmdb.access_token: required")
	}
	if u, err := url.Parse(c.TMDB.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("tmdb.base_url: must be an absolute URL, got %q", c.TMDB.BaseURL))
	}
	if c.TMDB.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("tmdb.timeout: must be positive, got %s", c.TMDB.Timeout))
	}

	// Cache validation
	if c.Cache.FreshnessWindow <= 0 {
		errs = append(errs, fmt.Sprintf("cache.freshness_window: must be positive, got %s", c.Cache.FreshnessWindow))
	}
	if c.Cache.RelatedLimit < 1 || c.Cache.RelatedLimit > 5 {
		errs = append(errs, fmt.Sprintf("cache.related_limit: must be between 1 and 5, got %d", c.Cache.RelatedLimit))
	}
	if c.Cache.Retention < c.Cache.FreshnessWindow {
		errs = append(errs, fmt.Sprintf("cache.retention: must be at least freshness_window (%s), got %s", c.Cache.FreshnessWindow, c.Cache.Retention))
	}
	if c.Cache.PruneInterval < 0 {
		errs = append(errs, fmt.Sprintf("cache.prune_interval: must not be negative, got %s", c.Cache.PruneInterval))
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path: must start with /, got %q", c.Metrics.Path))
	}

	// Tracing validation
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("tracing.sample_rate: must be between 0 and 1, got %g", c.Tracing.SampleRate))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, "tracing.endpoint: required when tracing is enabled")
	}

	return errs
}
