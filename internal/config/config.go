// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Portal  PortalConfig  `mapstructure:"portal" yaml:"portal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ServerConfig holds settings for the HTTP front door.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen" yaml:"listen"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// PortalConfig describes the remote registry portal: entry points, credentials
// and the timing knobs for driving its UI.
type PortalConfig struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	ChassisFormURL  string `mapstructure:"chassis_form_url" yaml:"chassis_form_url"`
	BinFormURL      string `mapstructure:"bin_form_url" yaml:"bin_form_url"`
	VehiclesFormURL string `mapstructure:"vehicles_form_url" yaml:"vehicles_form_url"`

	Username string `mapstructure:"username" yaml:"-"`
	Password string `mapstructure:"password" yaml:"-"`

	// URL substrings that signal a completed login and an access-control
	// (logged out) redirect, respectively.
	LoginURLPattern  string `mapstructure:"login_url_pattern" yaml:"login_url_pattern"`
	LogoutURLPattern string `mapstructure:"logout_url_pattern" yaml:"logout_url_pattern"`

	CookieFile string `mapstructure:"cookie_file" yaml:"cookie_file"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	StepTimeout       time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	BannerTimeout     time.Duration `mapstructure:"banner_timeout" yaml:"banner_timeout"`
	TableTimeout      time.Duration `mapstructure:"table_timeout" yaml:"table_timeout"`

	// QueriesPerMinute throttles sessions opened against the portal.
	QueriesPerMinute int `mapstructure:"queries_per_minute" yaml:"queries_per_minute"`

	Labels LabelsConfig `mapstructure:"labels" yaml:"labels"`
}

// LabelsConfig carries the per-dictionary fallback prefixes for unrecognized
// table headers. The upstream portal revisions diverge here, so each
// dictionary is configured independently rather than unified.
type LabelsConfig struct {
	ChassisFallbackPrefix  string `mapstructure:"chassis_fallback_prefix" yaml:"chassis_fallback_prefix"`
	BinFallbackPrefix      string `mapstructure:"bin_fallback_prefix" yaml:"bin_fallback_prefix"`
	VehiclesFallbackPrefix string `mapstructure:"vehicles_fallback_prefix" yaml:"vehicles_fallback_prefix"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "detranbridge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Server --
	v.SetDefault("server.listen", ":3333")
	v.SetDefault("server.shutdown_timeout", "15s")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)

	// -- Portal --
	v.SetDefault("portal.base_url", "https://detrannet.detran.ma.gov.br/")
	// The query form URLs carry per-deployment transaction codes, so they have
	// no sensible defaults. Registering them keeps the env binding alive.
	v.SetDefault("portal.chassis_form_url", "")
	v.SetDefault("portal.bin_form_url", "")
	v.SetDefault("portal.vehicles_form_url", "")
	v.SetDefault("portal.login_url_pattern", "/ControleAcesso/Login")
	v.SetDefault("portal.logout_url_pattern", "/ControleAcesso/")
	v.SetDefault("portal.cookie_file", "session/cookies.json")
	v.SetDefault("portal.navigation_timeout", "90s")
	v.SetDefault("portal.step_timeout", "30s")
	v.SetDefault("portal.banner_timeout", "3s")
	v.SetDefault("portal.table_timeout", "30s")
	v.SetDefault("portal.queries_per_minute", 10)
	v.SetDefault("portal.labels.chassis_fallback_prefix", "unrecognized:")
	v.SetDefault("portal.labels.bin_fallback_prefix", "unrecognized:")
	v.SetDefault("portal.labels.vehicles_fallback_prefix", "unrecognized:")
}

// Load reads config.yaml (optional) plus DETRANBRIDGE_* environment variables
// and produces a validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DETRANBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}

	return NewConfigFromViper(v)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind credentials explicitly so they resolve from the environment even
	// without a config file entry.
	v.BindEnv("portal.username", "DETRANBRIDGE_PORTAL_USERNAME")
	v.BindEnv("portal.password", "DETRANBRIDGE_PORTAL_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is a required configuration field")
	}
	if c.Portal.QueriesPerMinute <= 0 {
		return fmt.Errorf("portal.queries_per_minute must be a positive integer")
	}
	if c.Portal.BannerTimeout <= 0 || c.Portal.TableTimeout <= 0 {
		return fmt.Errorf("portal.banner_timeout and portal.table_timeout must be positive durations")
	}
	if c.Portal.StepTimeout <= 0 {
		return fmt.Errorf("portal.step_timeout must be a positive duration")
	}
	return nil
}
