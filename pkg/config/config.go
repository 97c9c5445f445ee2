package config

import (
	"time"
)

// Config represents the application configuration
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Transfer   TransferConfig   `yaml:"transfer"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConnectionConfig holds FTP session settings
type ConnectionConfig struct {
	RetryBudget   time.Duration `yaml:"retry_budget" validate:"gte=0"`   // how long refused connections are retried
	RetryInterval time.Duration `yaml:"retry_interval" validate:"gte=0"` // minimum spacing between attempts
	DialTimeout   time.Duration `yaml:"dial_timeout" validate:"gt=0"`
	Trust         string        `yaml:"trust" validate:"oneof=verify accept-any"`
	AnonymousUser string        `yaml:"anonymous_user" validate:"required"`
	DisableEPSV   bool          `yaml:"disable_epsv"` // use PASV for servers with broken EPSV
}

// TransferConfig holds copy-related settings
type TransferConfig struct {
	Transacted     bool  `yaml:"transacted"` // stage uploads in a temporary file
	Verify         bool  `yaml:"verify"`     // hash both sides after each copy
	BufferSize     int   `yaml:"buffer_size" validate:"min=1024"`
	BandwidthLimit int64 `yaml:"bandwidth_limit" validate:"gte=0"` // bytes per second, 0 = unlimited
	Progress       bool  `yaml:"progress"`                         // Show progress bars
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=human json"`
	Quiet  bool   `yaml:"quiet"` // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format" validate:"oneof=json text"`
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	File   string `yaml:"file"` // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			RetryBudget:   30 * time.Second,
			RetryInterval: time.Second,
			DialTimeout:   30 * time.Second,
			Trust:         "verify",
			AnonymousUser: "anonymous",
		},
		Transfer: TransferConfig{
			Transacted:     true,
			BufferSize:     65536,
			BandwidthLimit: 0,
			Progress:       true,
		},
		Output: OutputConfig{
			Format: "human",
			Quiet:  false,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "warn",
			File:   "",
		},
	}
}
