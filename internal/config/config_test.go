package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
sdb:
  env: demo
  session_id: abc
  timeout: 10s
  rate_limit: 5
cache:
  backend: badger
  ttl:
    tree: 30m
logging:
  level: debug
  format: json
series:
  concurrency: 4
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SDB.Env != "demo" {
		t.Errorf("SDB.Env = %q, want %q", cfg.SDB.Env, "demo")
	}
	if cfg.SDB.Timeout != 10*time.Second {
		t.Errorf("SDB.Timeout = %v, want %v", cfg.SDB.Timeout, 10*time.Second)
	}
	if cfg.SDB.RateLimit != 5 {
		t.Errorf("SDB.RateLimit = %v, want 5", cfg.SDB.RateLimit)
	}
	if cfg.Cache.TTL["tree"] != 30*time.Minute {
		t.Errorf("Cache.TTL[tree] = %v, want %v", cfg.Cache.TTL["tree"], 30*time.Minute)
	}
	if cfg.Series.Concurrency != 4 {
		t.Errorf("Series.Concurrency = %d, want 4", cfg.Series.Concurrency)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SDB_SESSION", "secret123")

	yaml := `
sdb:
  session_id: ${TEST_SDB_SESSION}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SDB.SessionID != "secret123" {
		t.Errorf("SDB.SessionID = %q, want %q", cfg.SDB.SessionID, "secret123")
	}
}

func TestLoadWithDotEnv(t *testing.T) {
	path := writeTempFile(t, "sdb:\n  session_id: ${TEST_DOTENV_SESSION}\n")
	env := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(env, []byte("TEST_DOTENV_SESSION=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_SESSION") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SDB.SessionID != "from-dotenv" {
		t.Errorf("SDB.SessionID = %q, want %q", cfg.SDB.SessionID, "from-dotenv")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Errorf("Load() error = %v, want read config file error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "sdb:\n  session_id: abc\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.SDB.Env != DefaultEnv {
		t.Errorf("SDB.Env = %q, want default %q", cfg.SDB.Env, DefaultEnv)
	}
	if cfg.SDB.Timeout != DefaultTimeout {
		t.Errorf("SDB.Timeout = %v, want default %v", cfg.SDB.Timeout, DefaultTimeout)
	}
	if cfg.SDB.MaxRetries != DefaultMaxRetries {
		t.Errorf("SDB.MaxRetries = %d, want default %d", cfg.SDB.MaxRetries, DefaultMaxRetries)
	}
	if cfg.Cache.Backend != DefaultCacheBackend {
		t.Errorf("Cache.Backend = %q, want default %q", cfg.Cache.Backend, DefaultCacheBackend)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("Logging.Format = %q, want default %q", cfg.Logging.Format, DefaultLogFormat)
	}
	if cfg.Series.Timeout != DefaultSeriesTimeout {
		t.Errorf("Series.Timeout = %v, want default %v", cfg.Series.Timeout, DefaultSeriesTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.SDB.SessionID = "abc"
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing session id",
			mutate:  func(c *Config) { c.SDB.SessionID = "" },
			wantErr: "sdb.session_id is required",
		},
		{
			name:    "unknown env",
			mutate:  func(c *Config) { c.SDB.Env = "qa" },
			wantErr: `sdb.env must be one of [prod demo stage cprod], got "qa"`,
		},
		{
			name: "url overrides env",
			mutate: func(c *Config) {
				c.SDB.Env = "qa"
				c.SDB.URL = "http://localhost:8080/api/v1.0/"
			},
		},
		{
			name:    "relative url",
			mutate:  func(c *Config) { c.SDB.URL = "symboldb/api" },
			wantErr: `sdb.url is not an absolute URL: "symboldb/api"`,
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.SDB.RateLimit = -1 },
			wantErr: "sdb.rate_limit must be >= 0",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "redis" },
			wantErr: `cache.backend must be one of [file badger], got "redis"`,
		},
		{
			name:    "negative ttl",
			mutate:  func(c *Config) { c.Cache.TTL = map[string]time.Duration{"tree": -time.Minute} },
			wantErr: "cache.ttl.tree must be >= 0",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: `logging.level must be one of [debug info warn error], got "trace"`,
		},
		{
			name:    "zero series concurrency",
			mutate:  func(c *Config) { c.Series.Concurrency = 0 },
			wantErr: "series.concurrency must be >= 1",
		},
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
