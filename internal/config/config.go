package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/username/leave-planner/internal/calendar"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEAVE_PLANNER_LEAVE_BUDGET=5
const EnvPrefix = "LEAVE_PLANNER"

// Config represents application configuration
type Config struct {
	Leave       LeaveConfig       `mapstructure:"leave"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Holidays    HolidaysConfig    `mapstructure:"holidays"`
	State       StateConfig       `mapstructure:"state"`
	Log         LogConfig         `mapstructure:"log"`
	Server      ServerConfig      `mapstructure:"server"`
}

// LeaveConfig represents the yearly entitlement and search defaults
type LeaveConfig struct {
	AnnualDays int `mapstructure:"annual_days"`
	Budget     int `mapstructure:"budget"`      // Max leave days per suggested window
	MaxResults int `mapstructure:"max_results"` // 0 = unlimited
}

// PreferencesConfig represents the default user toggles
type PreferencesConfig struct {
	IncludeHolySpirit bool   `mapstructure:"include_holy_spirit"`
	ParentMode        bool   `mapstructure:"parent_mode"`
	FromToday         bool   `mapstructure:"from_today"`
	Language          string `mapstructure:"language"` // "el" or "en"
}

// HolidaysConfig represents custom holiday sources
type HolidaysConfig struct {
	File      string                       `mapstructure:"file"`
	RemoteURL string                       `mapstructure:"remote_url"`
	CacheTTL  string                       `mapstructure:"cache_ttl"`
	Custom    []calendar.CustomHolidaySpec `mapstructure:"custom"`
}

// StateConfig represents plan storage configuration
type StateConfig struct {
	Driver string `mapstructure:"driver"` // "json" or "sqlite"
	Path   string `mapstructure:"path"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // Empty = console
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	RefreshInterval string `mapstructure:"refresh_interval"` // Holiday source refresh, "0" disables
}

// Load loads configuration from file, .env and environment variables.
// A missing config file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.leave-planner")
		v.AddConfigPath("/etc/leave-planner")
	}

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("leave.annual_days", 20)
	v.SetDefault("leave.budget", 5)
	v.SetDefault("leave.max_results", 10)

	v.SetDefault("preferences.include_holy_spirit", false)
	v.SetDefault("preferences.parent_mode", false)
	v.SetDefault("preferences.from_today", false)
	v.SetDefault("preferences.language", "el")

	v.SetDefault("holidays.file", "")
	v.SetDefault("holidays.remote_url", "")
	v.SetDefault("holidays.cache_ttl", "24h")

	v.SetDefault("state.driver", "json")
	v.SetDefault("state.path", "data/plan.json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.refresh_interval", "6h")
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	// Validate Leave config
	if c.Leave.AnnualDays < 0 {
		errs = append(errs, fmt.Errorf("leave.annual_days must not be negative, got %d", c.Leave.AnnualDays))
	}
	if c.Leave.Budget < 0 {
		errs = append(errs, fmt.Errorf("leave.budget must not be negative, got %d", c.Leave.Budget))
	}
	if c.Leave.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("leave.max_results must not be negative, got %d", c.Leave.MaxResults))
	}

	switch c.Preferences.Language {
	case "", "el", "en":
	default:
		errs = append(errs, fmt.Errorf("preferences.language must be 'el' or 'en', got '%s'", c.Preferences.Language))
	}

	// Validate Holidays config
	if c.Holidays.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Holidays.CacheTTL); err != nil {
			errs = append(errs, fmt.Errorf("holidays.cache_ttl: %w", err))
		}
	}
	if _, err := calendar.ParseCustomHolidays(c.Holidays.Custom); err != nil {
		errs = append(errs, fmt.Errorf("holidays.custom: %w", err))
	}

	// Validate State config
	switch c.State.Driver {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("state.driver must be 'json' or 'sqlite', got '%s'", c.State.Driver))
	}
	if c.State.Path == "" {
		errs = append(errs, fmt.Errorf("state.path is required"))
	}

	// Validate Log config
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	// Validate Server config
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.Server.RefreshInterval); err != nil {
			errs = append(errs, fmt.Errorf("server.refresh_interval: %w", err))
		}
	}

	return errors.Join(errs...)
}

// GetCacheTTL returns the remote holiday cache TTL
func (c *HolidaysConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

// GetRefreshInterval returns the holiday refresh interval of the API daemon
func (c *ServerConfig) GetRefreshInterval() time.Duration {
	if c.RefreshInterval == "" {
		return 6 * time.Hour
	}
	duration, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return duration
}

// ExpandEnvVars expands environment variables in paths and URLs
func (c *Config) ExpandEnvVars() {
	c.Holidays.File = os.ExpandEnv(c.Holidays.File)
	c.Holidays.RemoteURL = os.ExpandEnv(c.Holidays.RemoteURL)
	c.State.Path = os.ExpandEnv(c.State.Path)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
