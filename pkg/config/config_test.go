package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Connection.RetryBudget)
	assert.Equal(t, time.Second, cfg.Connection.RetryInterval)
	assert.Equal(t, "verify", cfg.Connection.Trust)
	assert.True(t, cfg.Transfer.Transacted)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"UnknownTrust", func(c *Config) { c.Connection.Trust = "maybe" }, "connection.trust"},
		{"ZeroDialTimeout", func(c *Config) { c.Connection.DialTimeout = 0 }, "connection.dial_timeout"},
		{"NegativeBudget", func(c *Config) { c.Connection.RetryBudget = -time.Second }, "connection.retry_budget"},
		{"EmptyAnonymousUser", func(c *Config) { c.Connection.AnonymousUser = "" }, "connection.anonymous_user"},
		{"SmallBuffer", func(c *Config) { c.Transfer.BufferSize = 512 }, "transfer.buffer_size"},
		{"NegativeBandwidth", func(c *Config) { c.Transfer.BandwidthLimit = -1 }, "transfer.bandwidth_limit"},
		{"OutputFormat", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"LogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"LogLevel", func(c *Config) { c.Logging.Level = "INVALID" }, "logging.level"},
		{"RetryWithoutInterval", func(c *Config) { c.Connection.RetryInterval = 0 }, "connection.retry_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "want *models.ValidationError, got %T", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidate_NoRetry(t *testing.T) {
	cfg := Default()
	cfg.Connection.RetryBudget = 0
	cfg.Connection.RetryInterval = 0

	assert.NoError(t, cfg.Validate())
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
connection:
  retry_budget: 5s
  trust: accept-any
transfer:
  transacted: false
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Connection.RetryBudget)
	assert.Equal(t, "accept-any", cfg.Connection.Trust)
	assert.False(t, cfg.Transfer.Transacted)
	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Connection.RetryInterval)
	assert.Equal(t, 65536, cfg.Transfer.BufferSize)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("connection:\n  retries: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestParse_InvalidValue(t *testing.T) {
	_, err := Parse([]byte("output:\n  format: xml\n"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "output.format"), err.Error())
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Connection.DialTimeout = 10 * time.Second
	cfg.Transfer.BandwidthLimit = 1 << 20
	cfg.Logging.Level = "debug"

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveToFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Output.Format = "xml"

	require.Error(t, SaveToFile(cfg, path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadDefault_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
