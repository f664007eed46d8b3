package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FromFile(t *testing.T) {
	content := []byte(`
server:
  host: "127.0.0.1"
  port: 8080

backend:
  base_url: "http://backtest.internal:9000"
  timeout: 45s

session:
  store: archive

archive:
  type: localfs
  path: "/tmp/strategylab/archive"
`)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Backend.BaseURL != "http://backtest.internal:9000" {
		t.Errorf("unexpected base url %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Backend.Timeout)
	}
	if cfg.Archive.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Archive.Type)
	}
	// Unset keys keep their defaults
	if cfg.Table.PageSize != 10 {
		t.Errorf("expected default page size 10, got %d", cfg.Table.PageSize)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.BaseURL != DefaultBackendURL {
		t.Errorf("expected fallback base url, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Analytics.Key != DefaultAnalyticsKey {
		t.Errorf("expected fallback analytics key, got %s", cfg.Analytics.Key)
	}
	if cfg.Analytics.Host != DefaultAnalyticsHost {
		t.Errorf("expected fallback analytics host, got %s", cfg.Analytics.Host)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("POSTHOG_KEY", "phc_live")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Backend.BaseURL != "https://api.example.com" {
		t.Errorf("expected env base url, got %s", cfg.Backend.BaseURL)
	}
	if cfg.Analytics.Key != "phc_live" {
		t.Errorf("expected env analytics key, got %s", cfg.Analytics.Key)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected env port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_S3_SECRET", "s3cr3t")
	content := []byte(`
archive:
  type: s3
  s3:
    bucket: sessions
    secret_key: "${TEST_S3_SECRET}"
`)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Archive.S3.SecretKey != "s3cr3t" {
		t.Errorf("expected expanded secret, got %q", cfg.Archive.S3.SecretKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("expected memory session store, got %s", cfg.Session.Store)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config { return *Defaults() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid port - too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "/api" },
			wantErr: true,
		},
		{
			name:    "unknown session store",
			mutate:  func(c *Config) { c.Session.Store = "redis" },
			wantErr: true,
		},
		{
			name: "sqlite store without path",
			mutate: func(c *Config) {
				c.Session.Store = "sqlite"
				c.Session.SQLitePath = ""
			},
			wantErr: true,
		},
		{
			name: "archive store on s3 without bucket",
			mutate: func(c *Config) {
				c.Session.Store = "archive"
				c.Archive.Type = "s3"
			},
			wantErr: true,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Table.PageSize = 0 },
			wantErr: true,
		},
		{
			name: "analytics enabled without host",
			mutate: func(c *Config) {
				c.Analytics.Enabled = true
				c.Analytics.Host = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Addr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 3000}
	if s.Addr() != "127.0.0.1:3000" {
		t.Errorf("unexpected addr %s", s.Addr())
	}
}
