package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.BaseURL != "" {
		errs = append(errs, checkURL("server.base_url", c.Server.BaseURL)...)
	}

	if c.Catalog.URL != "" {
		errs = append(errs, checkURL("catalog.url", c.Catalog.URL)...)
	} else if !c.API.Enabled {
		errs = append(errs, "catalog.url: required when api.enabled = false")
	}
	if c.Catalog.Timeout.Duration < 0 {
		errs = append(errs, "catalog.timeout: must not be negative")
	}

	if c.Embed.Host == "" || strings.ContainsAny(c.Embed.Host, "/?# ") {
		errs = append(errs, fmt.Sprintf("embed.host: must be a bare host name, got %q", c.Embed.Host))
	}

	if c.Page.PendingWait.Duration < 0 || c.Page.PendingWait.Duration > time.Minute {
		errs = append(errs, fmt.Sprintf("page.pending_wait: must be between 0 and 1m, got %s", c.Page.PendingWait))
	}
	if c.Page.RefreshSeconds < 0 {
		errs = append(errs, fmt.Sprintf("page.refresh_seconds: must not be negative, got %d", c.Page.RefreshSeconds))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if c.Cache.Enabled {
		if c.Cache.TTL.Duration < time.Second {
			errs = append(errs, fmt.Sprintf("cache.ttl: must be at least 1s, got %s", c.Cache.TTL))
		}
		if c.Cache.PruneInterval.Duration < time.Second {
			errs = append(errs, fmt.Sprintf("cache.prune_interval: must be at least 1s, got %s", c.Cache.PruneInterval))
		}
	}

	return errs
}

func checkURL(field, raw string) []string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []string{fmt.Sprintf("%s: must be an absolute http(s) URL, got %q", field, raw)}
	}
	return nil
}
