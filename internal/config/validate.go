package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

var (
	validEnvs      = []string{"prod", "demo", "stage", "cprod"}
	validBackends  = []string{"file", "badger"}
	validLevels    = []string{"debug", "info", "warn", "error"}
	validLogFormat = []string{"json", "console"}
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.SDB.SessionID == "" {
		return errors.New("sdb.session_id is required")
	}
	if c.SDB.URL == "" && !slices.Contains(validEnvs, c.SDB.Env) {
		return fmt.Errorf("sdb.env must be one of %v, got %q", validEnvs, c.SDB.Env)
	}
	if c.SDB.URL != "" {
		if u, err := url.Parse(c.SDB.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("sdb.url is not an absolute URL: %q", c.SDB.URL)
		}
	}
	if c.SDB.MaxRetries < 1 {
		return errors.New("sdb.max_retries must be >= 1")
	}
	if c.SDB.RateLimit < 0 {
		return errors.New("sdb.rate_limit must be >= 0")
	}
	if c.SDB.Concurrency < 1 {
		return errors.New("sdb.concurrency must be >= 1")
	}

	if !slices.Contains(validBackends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend must be one of %v, got %q", validBackends, c.Cache.Backend)
	}
	for list, ttl := range c.Cache.TTL {
		if ttl < 0 {
			return fmt.Errorf("cache.ttl.%s must be >= 0", list)
		}
	}

	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLevels, c.Logging.Level)
	}
	if !slices.Contains(validLogFormat, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", validLogFormat, c.Logging.Format)
	}

	if c.Series.Concurrency < 1 {
		return errors.New("series.concurrency must be >= 1")
	}
	return nil
}
