package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultEnv               = "prod"
	DefaultTimeout           = 60 * time.Second
	DefaultMaxRetries        = 9
	DefaultRetryBackoff      = 2 * time.Second
	DefaultRateBurst         = 1
	DefaultSDBConcurrency    = 8
	DefaultCacheDir          = "cache"
	DefaultCacheBackend      = "file"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 5
	DefaultLogMaxAgeDays     = 28
	DefaultSeriesConcurrency = 8
	DefaultSeriesTimeout     = 2 * time.Minute
)

func (c *Config) applyDefaults() {
	// SymbolDB defaults
	if c.SDB.Env == "" {
		c.SDB.Env = DefaultEnv
	}
	if c.SDB.Timeout == 0 {
		c.SDB.Timeout = DefaultTimeout
	}
	if c.SDB.MaxRetries == 0 {
		c.SDB.MaxRetries = DefaultMaxRetries
	}
	if c.SDB.RetryBackoff == 0 {
		c.SDB.RetryBackoff = DefaultRetryBackoff
	}
	if c.SDB.RateBurst == 0 {
		c.SDB.RateBurst = DefaultRateBurst
	}
	if c.SDB.Concurrency == 0 {
		c.SDB.Concurrency = DefaultSDBConcurrency
	}

	// Cache defaults
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Series defaults
	if c.Series.Concurrency == 0 {
		c.Series.Concurrency = DefaultSeriesConcurrency
	}
	if c.Series.Timeout == 0 {
		c.Series.Timeout = DefaultSeriesTimeout
	}
}
