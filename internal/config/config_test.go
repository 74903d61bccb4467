package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Millisecond, cfg.GetSearchDebounce())
	assert.Equal(t, 30*time.Minute, cfg.GetSessionTTL())
	assert.Equal(t, language.French, cfg.LocaleTag())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vizille.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9090"
source: "s3://municipal/actions.json"
search_debounce: 150ms
sessions:
  ttl: 1h
s3:
  endpoint: http://minio:9000
  path_style: true
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "s3://municipal/actions.json", cfg.Source)
	assert.Equal(t, 150*time.Millisecond, cfg.GetSearchDebounce())
	assert.Equal(t, time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.GetSweepInterval(), "unset keys keep defaults")
	assert.True(t, cfg.S3.PathStyle)
	assert.Equal(t, "eu-west-3", cfg.S3.Region)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sessions: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("values replace defaults", func(t *testing.T) {
		t.Setenv("VIZILLE_SOURCE", "https://vizille.fr/actions.json")
		t.Setenv("VIZILLE_SEARCH_DEBOUNCE_MS", "500")
		t.Setenv("VIZILLE_SESSION_TTL_MIN", "90")
		t.Setenv("TRUSTED_PROXIES_CIDR", "10.0.0.0/8, 192.168.0.0/16")
		t.Setenv("ENABLE_REQUEST_LOGGING", "yes")
		t.Setenv("VIZILLE_S3_PATH_STYLE", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "https://vizille.fr/actions.json", cfg.Source)
		assert.Equal(t, 500*time.Millisecond, cfg.GetSearchDebounce())
		assert.Equal(t, 90*time.Minute, cfg.GetSessionTTL())
		assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.RateLimit.TrustedProxies)
		assert.True(t, cfg.Logging.RequestLogging)
		assert.True(t, cfg.S3.PathStyle)
	})

	t.Run("unparsable numbers are ignored", func(t *testing.T) {
		t.Setenv("VIZILLE_SEARCH_DEBOUNCE_MS", "soon")
		t.Setenv("VIZILLE_RATE_LIMIT_RPM", "many")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "300ms", cfg.SearchDebounce)
		assert.Equal(t, 600, cfg.RateLimit.RPM)
	})

	t.Run("env beats file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vizille.yaml")
		require.NoError(t, os.WriteFile(path, []byte("locale: en\n"), 0o644))
		t.Setenv("VIZILLE_LOCALE", "de")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "de", cfg.Locale)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source", func(c *Config) { c.Source = " " }},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"bad locale", func(c *Config) { c.Locale = "not a locale!" }},
		{"bad duration", func(c *Config) { c.SearchDebounce = "fast" }},
		{"zero duration", func(c *Config) { c.Sessions.TTL = "0s" }},
		{"negative duration", func(c *Config) { c.FetchTimeout = "-1s" }},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }},
		{"negative rpm", func(c *Config) { c.RateLimit.RPM = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestZeroBurstFallsBackToRPM(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.Burst = 0
	assert.NoError(t, cfg.Validate())

	cfg.RateLimit.RPM = 0
	assert.NoError(t, cfg.Validate(), "rpm 0 disables the limiter")
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, splitCSV("  "))
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b ,"))
}
