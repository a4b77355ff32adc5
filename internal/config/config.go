// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	TMDB     TMDBConfig     `toml:"tmdb"`
	Cache    CacheConfig    `toml:"cache"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Tracing  TracingConfig  `toml:"tracing"`
}

type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "text" or "json"
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // "sqlite", "postgres" or "memory"
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type TMDBConfig struct {
	AccessToken string        `toml:"access_token"`
	BaseURL     string        `toml:"base_url"`
	Timeout     time.Duration `toml:"timeout"`
	Language    string        `toml:"language"`
}

type CacheConfig struct {
	FreshnessWindow time.Duration `toml:"freshness_window"`
	RelatedLimit    int           `toml:"related_limit"`
	Retention       time.Duration `toml:"retention"`
	PruneInterval   time.Duration `toml:"prune_interval"` // 0 disables the daemon's prune loop
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type TracingConfig struct {
	Enabled     bool    `toml:"enabled"`
	Endpoint    string  `toml:"endpoint"`
	SampleRate  float64 `toml:"sample_rate"`
	ServiceName string  `toml:"service_name"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type loadOptions struct {
	requireToken bool
}

// LoadOption adjusts Load.
type LoadOption func(*loadOptions)

// WithoutToken loads a config for commands that never call TMDB. The access
// token, and any environment variable it references, may be unset.
func WithoutToken() LoadOption {
	return func(o *loadOptions) { o.requireToken = false }
}

// Load reads and parses the configuration file. Variables from .env.local
// and .env next to the file are loaded first without overriding the
// process environment.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{requireToken: true}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	envFiles, err := loadDotEnv(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	content, refs := substituteEnvVars(string(data))
	if !o.requireToken {
		refs = dropRefs(refs, tokenRefs(string(data)))
	}

	cfg := Default()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	cfgErr := &ConfigError{Path: path, EnvFiles: envFiles, Errors: cfg.validate(o.requireToken)}
	for _, r := range refs {
		if r.required {
			cfgErr.Required = append(cfgErr.Required, r.name+": "+r.message)
		} else {
			cfgErr.Unset = append(cfgErr.Unset, r.name)
		}
	}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

// tokenRefs returns the variables referenced by tmdb.access_token before
// substitution.
func tokenRefs(raw string) map[string]bool {
	var doc struct {
		TMDB struct {
			AccessToken string `toml:"access_token"`
		} `toml:"tmdb"`
	}
	if _, err := toml.Decode(raw, &doc); err != nil {
		return nil
	}
	names := make(map[string]bool)
	for _, m := range envVarPattern.FindAllStringSubmatch(doc.TMDB.AccessToken, -1) {
		names[m[1]] = true
	}
	return names
}

func dropRefs(refs []envRef, names map[string]bool) []envRef {
	kept := refs[:0]
	for _, r := range refs {
		if !names[r.name] {
			kept = append(kept, r)
		}
	}
	return kept
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
		Tracing: TracingConfig{SampleRate: 1.0},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8484
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "text"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/marquee.db"
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if c.TMDB.Timeout == 0 {
		c.TMDB.Timeout = 10 * time.Second
	}
	if c.TMDB.Language == "" {
		c.TMDB.Language = "en-US"
	}
	if c.Cache.FreshnessWindow == 0 {
		c.Cache.FreshnessWindow = 24 * time.Hour
	}
	if c.Cache.RelatedLimit == 0 {
		c.Cache.RelatedLimit = 5
	}
	if c.Cache.Retention == 0 {
		c.Cache.Retention = 720 * time.Hour
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "marquee"
	}
}

// loadDotEnv loads .env.local then .env from dir and returns the files it
// read. godotenv never overrides a variable that is already set, so the
// first file wins.
func loadDotEnv(dir string) ([]string, error) {
	var loaded []string
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		err := godotenv.Load(p)
		switch {
		case err == nil:
			loaded = append(loaded, p)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return loaded, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// envRef is a reference substituteEnvVars could not resolve.
type envRef struct {
	name     string
	required bool   // ${VAR:?message}
	message  string // only set when required
}

// substituteEnvVars replaces environment variable references and returns the
// ones it could not resolve. Unresolved references are left in place. An
// empty variable counts as unset for the :- and :? forms.
func substituteEnvVars(content string) (string, []envRef) {
	var unresolved []envRef
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]

		value, ok := os.LookupEnv(name)
		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				unresolved = append(unresolved, envRef{name: name, required: true, message: arg})
				return match
			}
			return value
		default:
			if !ok {
				unresolved = append(unresolved, envRef{name: name})
				return match
			}
			return value
		}
	})
	return out, unresolved
}
