package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/ftpvault/internal/platform"
	"github.com/sdejongh/ftpvault/pkg/config"
	"github.com/sdejongh/ftpvault/pkg/logging"
	"github.com/sdejongh/ftpvault/pkg/output"
	"github.com/sdejongh/ftpvault/pkg/storage"
	"github.com/sdejongh/ftpvault/pkg/storage/ftp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// session holds what a storage command needs: effective configuration,
// logger, backends and output
type session struct {
	cfg       *config.Config
	logger    logging.Logger
	registry  *storage.Registry
	formatter output.Formatter
	creds     storage.IOConnection
	stderr    io.Writer
}

// newSession loads the configuration, applies the global flags and wires
// the backends. Callers must Close the session.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := credentials()
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	if cfg.Output.Quiet {
		out = io.Discard
	}
	formatter, err := output.New(cfg.Output.Format, out)
	if err != nil {
		return nil, err
	}

	logger, err := createLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		formatter: formatter,
		creds:     creds,
		stderr:    cmd.ErrOrStderr(),
	}, nil
}

// Close releases the logger
func (s *session) Close() error {
	return s.logger.Close()
}

// resolve maps a command line argument to its backend and connection,
// asking for a password on the terminal when the backend needs one
func (s *session) resolve(ctx context.Context, arg string) (storage.FileStorage, storage.IOConnection, error) {
	location, err := platform.ResolveLocation(arg)
	if err != nil {
		return nil, storage.IOConnection{}, err
	}
	fs, err := s.registry.ForLocation(location)
	if err != nil {
		return nil, storage.IOConnection{}, err
	}

	ioc := s.creds.WithPath(location)
	if ioc.UserName != "" && ioc.Password == "" && fs.RequiresCredentials(ioc) && term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := readPassword(s.stderr, ioc.UserName)
		if err != nil {
			return nil, storage.IOConnection{}, err
		}
		// remember it for the other side of a copy
		s.creds.Password = password
		ioc.Password = password
	}

	if err := fs.PrepareFileUsage(ctx, ioc); err != nil {
		return nil, storage.IOConnection{}, err
	}
	return fs, ioc, nil
}

// fail reports err through the JSON formatter when one is active and
// wraps it with its exit code
func (s *session) fail(err error) error {
	if err == nil {
		return nil
	}
	if s.formatter.Name() == "json" && !s.cfg.Output.Quiet {
		if ferr := s.formatter.Error(err); ferr == nil {
			return exitWith(err, true)
		}
	}
	return exitWith(err, false)
}

func readPassword(w io.Writer, user string) (string, error) {
	fmt.Fprintf(w, "Password for %s: ", user)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cfg *config.Config) {
	// Output format
	if globalFlags.Output != "" {
		cfg.Output.Format = globalFlags.Output
	}

	// Logging
	if globalFlags.LogFile != "" {
		cfg.Logging.File = globalFlags.LogFile
	}
	if globalFlags.LogFormat != "" {
		cfg.Logging.Format = globalFlags.LogFormat
	}
	if globalFlags.LogLevel != "" {
		cfg.Logging.Level = globalFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Transfer.Progress = false
		cfg.Output.Quiet = true
	}

	// Verbose mode logs everything
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// credentials builds the connection template shared by every location
func credentials() (storage.IOConnection, error) {
	mode, err := parseCredSaveMode(globalFlags.SaveCredentials)
	if err != nil {
		return storage.IOConnection{}, err
	}

	password := globalFlags.Password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	return storage.IOConnection{
		UserName:     globalFlags.User,
		Password:     password,
		CredSaveMode: mode,
	}, nil
}

func parseCredSaveMode(s string) (storage.CredSaveMode, error) {
	switch s {
	case "none", "":
		return storage.CredSaveNone, nil
	case "user":
		return storage.CredSaveUserNameOnly, nil
	case "full":
		return storage.CredSaveFull, nil
	default:
		return 0, fmt.Errorf("invalid --save-credentials value: %s (valid: none, user, full)", s)
	}
}

// createLogger creates a logger based on configuration. Logs go to stderr
// unless a log file is configured.
func createLogger(cfg config.LoggingConfig, stderr io.Writer) (logging.Logger, error) {
	// Parse log format
	var format logging.Format
	switch cfg.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}
	level := logging.ParseLevel(cfg.Level)

	if cfg.File == "" {
		return logging.NewStreamLogger(stderr, format, level), nil
	}

	// Create file logger
	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     format,
		Level:      level,
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}

// buildRegistry registers the local and FTP backends
func buildRegistry(cfg *config.Config, logger logging.Logger) (*storage.Registry, error) {
	trust, err := ftp.ParseTrustPolicy(cfg.Connection.Trust)
	if err != nil {
		return nil, err
	}

	connector := ftp.NewConnector(
		ftp.NetDialer{DisableEPSV: cfg.Connection.DisableEPSV},
		ftp.RetryPolicy{
			Budget:   cfg.Connection.RetryBudget,
			Interval: cfg.Connection.RetryInterval,
			RetryIf:  ftp.IsConnectionRefused,
		},
		logger,
	)
	remote := ftp.New(connector, ftp.Config{
		Trust:         trust,
		DialTimeout:   cfg.Connection.DialTimeout,
		AnonymousUser: cfg.Connection.AnonymousUser,
	}, logger)

	registry := storage.NewRegistry()
	if err := registry.Register(storage.NewLocal()); err != nil {
		return nil, err
	}
	if err := registry.Register(remote); err != nil {
		return nil, err
	}
	return registry, nil
}
