// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Embed    EmbedConfig    `toml:"embed"`
	Page     PageConfig     `toml:"page"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	API      APIConfig      `toml:"api"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	BaseURL  string `toml:"base_url"` // public URL, used for og:url and the CLI default
}

// CatalogConfig points the page loader at the movie records API.
// An empty URL means this server's own /api/movies.
type CatalogConfig struct {
	URL      string   `toml:"url"`
	Timeout  Duration `toml:"timeout"`
	CacheTTL Duration `toml:"cache_ttl"`
}

type EmbedConfig struct {
	Host string `toml:"host"`
}

// PageConfig controls how long the page handler waits for a record before
// serving the loading state.
type PageConfig struct {
	PendingWait    Duration `toml:"pending_wait"`
	RefreshSeconds int      `toml:"refresh_seconds"`
	Placeholder    string   `toml:"placeholder"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CacheConfig struct {
	Enabled        bool     `toml:"enabled"`
	TTL            Duration `toml:"ttl"`
	PruneInterval  Duration `toml:"prune_interval"`
	EventRetention Duration `toml:"event_retention"`
}

type APIConfig struct {
	Enabled bool `toml:"enabled"`
}

// Duration is a time.Duration that decodes from TOML strings like "1.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when a file leaves a value unset.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, toml.MetaData{})
	return cfg
}

// Load reads, substitutes, decodes and validates the configuration file.
// Unresolved variables and validation failures are returned together as a *ConfigError.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(path, string(data))
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadWithoutValidation reads and decodes the file, applying defaults but
// skipping validation and leaving unresolved variables in place.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, _, err := decode(string(data))
	return cfg, err
}

func decode(raw string) (*Config, []string, error) {
	content, missing := substituteEnvVars(raw)

	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(&cfg, md)
	return &cfg, missing, nil
}

func parse(path, raw string) (*Config, error) {
	cfg, missing, err := decode(raw)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// applyDefaults fills unset values. Booleans default to true only when the
// key is absent from the file.
func applyDefaults(cfg *Config, md toml.MetaData) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8585
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Catalog.Timeout.Duration == 0 {
		cfg.Catalog.Timeout.Duration = 10 * time.Second
	}
	if !md.IsDefined("catalog", "cache_ttl") {
		cfg.Catalog.CacheTTL.Duration = 5 * time.Minute
	}
	if cfg.Embed.Host == "" {
		cfg.Embed.Host = "www.youtube.com"
	}
	if cfg.Page.PendingWait.Duration == 0 {
		cfg.Page.PendingWait.Duration = 1500 * time.Millisecond
	}
	if !md.IsDefined("page", "refresh_seconds") {
		cfg.Page.RefreshSeconds = 2
	}
	if cfg.Page.Placeholder == "" {
		cfg.Page.Placeholder = "No description available."
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/reelview.db"
	}
	if !md.IsDefined("cache", "enabled") {
		cfg.Cache.Enabled = true
	}
	if cfg.Cache.TTL.Duration == 0 {
		cfg.Cache.TTL.Duration = 24 * time.Hour
	}
	if cfg.Cache.PruneInterval.Duration == 0 {
		cfg.Cache.PruneInterval.Duration = time.Hour
	}
	if cfg.Cache.EventRetention.Duration == 0 {
		cfg.Cache.EventRetention.Duration = 30 * 24 * time.Hour
	}
	if !md.IsDefined("api", "enabled") {
		cfg.API.Enabled = true
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CatalogURL returns the base URL the page loader fetches records from.
func (c *Config) CatalogURL() string {
	if c.Catalog.URL != "" {
		return strings.TrimRight(c.Catalog.URL, "/")
	}
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// ${VAR}, ${VAR:-default}, ${VAR:?message}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands variable references and reports the ones that
// could not be resolved. Unresolved references are left in place.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		// Comments are left alone so documented ${VAR} examples are not resolved.
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		var m []string
		lines[i], m = substituteLine(line)
		missing = append(missing, m...)
	}
	return strings.Join(lines, "\n"), missing
}

func substituteLine(line string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if value == "" {
				return arg
			}
			return value
		case ":?":
			if value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
