package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Session   SessionConfig   `mapstructure:"session"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Table     TableConfig     `mapstructure:"table"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	TemplatesDir string `mapstructure:"templates_dir"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// BackendConfig points at the backtest service.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnalyticsConfig holds the product analytics collector settings.
type AnalyticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Key     string `mapstructure:"key"`
	Host    string `mapstructure:"host"`
}

// SessionConfig selects where sessions are persisted.
type SessionConfig struct {
	Store      string        `mapstructure:"store"` // "memory", "sqlite" or "archive"
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
	MaxAge     time.Duration `mapstructure:"max_age"`
	SQLitePath string        `mapstructure:"sqlite_path"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// WorkspaceConfig bounds the per-session backtest page state.
type WorkspaceConfig struct {
	MaxWorkspaces int           `mapstructure:"max_workspaces"`
	TTL           time.Duration `mapstructure:"ttl"`
	RunTimeout    time.Duration `mapstructure:"run_timeout"`
}

type TableConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Hardcoded fallbacks for the environment-supplied settings.
const (
	DefaultBackendURL    = "http://localhost:8000"
	DefaultAnalyticsKey  = "phc_test_key"
	DefaultAnalyticsHost = "https://app.posthog.com"
)

// Load reads configuration from an optional file. Values from a .env file
// next to the working directory and from the environment override the file.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Defaults())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("backend.base_url", "BACKEND_BASE_URL", "API_BASE_URL")
	v.BindEnv("analytics.key", "ANALYTICS_KEY", "POSTHOG_KEY")
	v.BindEnv("analytics.host", "ANALYTICS_HOST", "POSTHOG_HOST")

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.templates_dir", d.Server.TemplatesDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("backend.base_url", d.Backend.BaseURL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("analytics.enabled", d.Analytics.Enabled)
	v.SetDefault("analytics.key", d.Analytics.Key)
	v.SetDefault("analytics.host", d.Analytics.Host)
	v.SetDefault("session.store", d.Session.Store)
	v.SetDefault("session.cookie_name", d.Session.CookieName)
	v.SetDefault("session.secure", d.Session.Secure)
	v.SetDefault("session.max_age", d.Session.MaxAge)
	v.SetDefault("session.sqlite_path", d.Session.SQLitePath)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.s3.bucket", "")
	v.SetDefault("archive.s3.endpoint", "")
	v.SetDefault("archive.s3.region", "")
	v.SetDefault("archive.s3.access_key", "")
	v.SetDefault("archive.s3.secret_key", "")
	v.SetDefault("archive.s3.prefix", "")
	v.SetDefault("workspace.max_workspaces", d.Workspace.MaxWorkspaces)
	v.SetDefault("workspace.ttl", d.Workspace.TTL)
	v.SetDefault("workspace.run_timeout", d.Workspace.RunTimeout)
	v.SetDefault("table.page_size", d.Table.PageSize)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Logging: LoggingConfig{
			Level: "",
		},
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: 2 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			Enabled: false,
			Key:     DefaultAnalyticsKey,
			Host:    DefaultAnalyticsHost,
		},
		Session: SessionConfig{
			Store:      "memory",
			CookieName: "strategylab_session",
			MaxAge:     7 * 24 * time.Hour,
			SQLitePath: "./strategylab.db",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./data",
		},
		Workspace: WorkspaceConfig{
			MaxWorkspaces: 1000,
			TTL:           2 * time.Hour,
			RunTimeout:    5 * time.Minute,
		},
		Table: TableConfig{
			PageSize: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Backend.BaseURL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("backend base_url is required"))
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backend base_url must be an absolute URL, got %q", c.Backend.BaseURL))
	}

	switch c.Session.Store {
	case "memory":
	case "sqlite":
		if c.Session.SQLitePath == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("session sqlite_path required when store is sqlite"))
		}
	case "archive":
		if err := c.Archive.validate(); err != nil {
			return err
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown session store: %q", c.Session.Store))
	}

	if c.Table.PageSize < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("table page_size must be positive, got %d", c.Table.PageSize))
	}

	if c.Analytics.Enabled && c.Analytics.Host == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("analytics host required when analytics is enabled"))
	}

	return nil
}

func (a ArchiveConfig) validate() error {
	switch a.Type {
	case "localfs":
		if a.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required for localfs"))
		}
	case "s3":
		if a.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive s3 bucket required for s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %q", a.Type))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
