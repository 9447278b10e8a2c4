package config

import "time"

// Config is the root configuration of the symboldb tools.
type Config struct {
	SDB     SDBConfig     `yaml:"sdb"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Series  SeriesConfig  `yaml:"series"`
}

// SDBConfig holds SymbolDB editor API settings.
type SDBConfig struct {
	Env          string        `yaml:"env"`        // prod, demo, stage or cprod
	URL          string        `yaml:"url"`        // overrides the env derived URL
	SessionID    string        `yaml:"session_id"` // X-Auth-SessionId header
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `yaml:"rate_burst"`
	Concurrency  int           `yaml:"concurrency"` // ancestor fetches in flight
}

// CacheConfig holds the reference list cache settings.
type CacheConfig struct {
	Dir     string                   `yaml:"dir"`
	Backend string                   `yaml:"backend"` // file or badger
	TTL     map[string]time.Duration `yaml:"ttl"`     // per list overrides
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json or console
	File       string `yaml:"file"`   // rotated log file, stderr when empty
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SeriesConfig holds expiration manager settings.
type SeriesConfig struct {
	Concurrency    int           `yaml:"concurrency"` // series loaded at once
	Timeout        time.Duration `yaml:"timeout"`     // per series
	SkipValidation bool          `yaml:"skip_validation"`
}
