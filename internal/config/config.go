// Package config loads the service configuration: defaults, then an
// optional YAML file, then environment variables. CLI flags are applied
// last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	Source         string `yaml:"source"`
	ThemesFile     string `yaml:"themes_file"`
	Locale         string `yaml:"locale"`
	SearchDebounce string `yaml:"search_debounce"`
	FetchTimeout   string `yaml:"fetch_timeout"`

	Sessions  SessionsConfig  `yaml:"sessions"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	S3        S3Config        `yaml:"s3"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SessionsConfig controls idle session expiry.
type SessionsConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// RateLimitConfig bounds command submissions per client IP: a bucket of
// Burst tokens refilled at RPM per minute. RPM 0 disables the limit and
// Burst 0 means a bucket of RPM tokens.
type RateLimitConfig struct {
	RPM            int      `yaml:"rpm"`
	Burst          int      `yaml:"burst"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// S3Config configures s3:// dataset locations. Credentials come from the
// standard AWS environment and shared config files.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// LoggingConfig selects the zap preset and level.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Development    bool   `yaml:"development"`
	RequestLogging bool   `yaml:"request_logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		Source:         "data/actions.json",
		Locale:         "fr",
		SearchDebounce: "300ms",
		FetchTimeout:   "15s",
		Sessions: SessionsConfig{
			TTL:           "30m",
			SweepInterval: "5m",
		},
		RateLimit: RateLimitConfig{RPM: 600, Burst: 60},
		S3:        S3Config{Region: "eu-west-3"},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (when
// path is not empty) and with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.ListenAddr = env("VIZILLE_LISTEN_ADDR", c.ListenAddr)
	c.Source = env("VIZILLE_SOURCE", c.Source)
	c.ThemesFile = env("VIZILLE_THEMES_FILE", c.ThemesFile)
	c.Locale = env("VIZILLE_LOCALE", c.Locale)

	if ms := envInt("VIZILLE_SEARCH_DEBOUNCE_MS", 0); ms > 0 {
		c.SearchDebounce = (time.Duration(ms) * time.Millisecond).String()
	}
	if ms := envInt("VIZILLE_FETCH_TIMEOUT_MS", 0); ms > 0 {
		c.FetchTimeout = (time.Duration(ms) * time.Millisecond).String()
	}
	if m := envInt("VIZILLE_SESSION_TTL_MIN", 0); m > 0 {
		c.Sessions.TTL = (time.Duration(m) * time.Minute).String()
	}
	if m := envInt("VIZILLE_SWEEP_INTERVAL_MIN", 0); m > 0 {
		c.Sessions.SweepInterval = (time.Duration(m) * time.Minute).String()
	}

	c.RateLimit.RPM = envInt("VIZILLE_RATE_LIMIT_RPM", c.RateLimit.RPM)
	c.RateLimit.Burst = envInt("VIZILLE_RATE_BURST", c.RateLimit.Burst)
	if cidrs := splitCSV(env("TRUSTED_PROXIES_CIDR", "")); len(cidrs) > 0 {
		c.RateLimit.TrustedProxies = cidrs
	}

	c.S3.Region = env("VIZILLE_S3_REGION", c.S3.Region)
	c.S3.Endpoint = env("VIZILLE_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.PathStyle = envBool("VIZILLE_S3_PATH_STYLE", c.S3.PathStyle)

	c.Logging.Level = env("VIZILLE_LOG_LEVEL", c.Logging.Level)
	c.Logging.Development = envBool("VIZILLE_LOG_DEV", c.Logging.Development)
	c.Logging.RequestLogging = envBool("ENABLE_REQUEST_LOGGING", c.Logging.RequestLogging)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Source) == "" {
		errs = append(errs, errors.New("source is required"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if _, err := language.Parse(c.Locale); err != nil {
		errs = append(errs, fmt.Errorf("locale %q: %w", c.Locale, err))
	}
	for name, v := range map[string]string{
		"search_debounce":         c.SearchDebounce,
		"fetch_timeout":           c.FetchTimeout,
		"sessions.ttl":            c.Sessions.TTL,
		"sessions.sweep_interval": c.Sessions.SweepInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, v))
		}
	}
	if c.RateLimit.RPM < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit.rpm and rate_limit.burst must not be negative"))
	}
	return errors.Join(errs...)
}

// LocaleTag returns the parsed locale, French when invalid.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.French
	}
	return tag
}

// GetSearchDebounce returns the text-query quiet period.
func (c *Config) GetSearchDebounce() time.Duration {
	return parseDuration(c.SearchDebounce, 300*time.Millisecond)
}

// GetFetchTimeout returns the dataset fetch timeout.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDuration(c.FetchTimeout, 15*time.Second)
}

// GetSessionTTL returns how long an idle session is kept.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Sessions.TTL, 30*time.Minute)
}

// GetSweepInterval returns the period of the idle-session sweep.
func (c *Config) GetSweepInterval() time.Duration {
	return parseDuration(c.Sessions.SweepInterval, 5*time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
