package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override, e.g.
// NOTIFYSYNC_API_BASE_URL overrides api.base_url.
const envPrefix = "NOTIFYSYNC"

// APIConfig holds settings for the notification service client.
type APIConfig struct {
	// BaseURL is the root URL of the notification service.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how often a rate-limited request is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// PollConfig controls the unread counter polling loop.
type PollConfig struct {
	IntervalSec     int `mapstructure:"interval_sec" yaml:"interval_sec"`
	FetchTimeoutSec int `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
}

// Interval returns the poll interval as a duration.
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSec) * time.Second
}

// FetchTimeout returns the per-cycle fetch timeout as a duration.
func (p PollConfig) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutSec) * time.Second
}

// LogConfig holds logger settings. File is where the terminal client
// writes its logs, since stdout belongs to the UI.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// ServerConfig configures the local development notification service.
type ServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	DBPath    string `mapstructure:"db_path" yaml:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// MetricsConfig configures the optional Prometheus endpoint.
// An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// configDir returns ~/.config/notifysync, falling back to the working
// directory when the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "notifysync")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifysync/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8086/api/v1",
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Poll: PollConfig{
			IntervalSec:     30,
			FetchTimeoutSec: 15,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			File:       filepath.Join(configDir(), "notifysync.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Server: ServerConfig{
			Addr:      ":8086",
			DBPath:    filepath.Join(configDir(), "notifyd.db"),
			JWTSecret: "dev-secret-key",
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so that missing keys and
// environment overrides resolve against the same values.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("api.max_retries", d.API.MaxRetries)
	v.SetDefault("poll.interval_sec", d.Poll.IntervalSec)
	v.SetDefault("poll.fetch_timeout_sec", d.Poll.FetchTimeoutSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.db_path", d.Server.DBPath)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first, and NOTIFYSYNC_*
// environment variables override file values. A missing file yields the
// defaults.
func LoadConfig(path string) (*AppConfig, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values LoadConfig cannot default.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.Poll.IntervalSec <= 0 {
		return fmt.Errorf("poll.interval_sec must be positive, got %d", c.Poll.IntervalSec)
	}
	if c.Poll.FetchTimeoutSec <= 0 {
		return fmt.Errorf("poll.fetch_timeout_sec must be positive, got %d", c.Poll.FetchTimeoutSec)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("poll", cfg.Poll)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)
	v.Set("server", cfg.Server)
	v.Set("metrics", cfg.Metrics)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
