package cli

import (
	"github.com/spf13/cobra"
)

// passwordEnv is read when --password is not given
const passwordEnv = "FTPVAULT_PASSWORD"

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile      string
	Verbose         bool
	Quiet           bool
	User            string
	Password        string
	SaveCredentials string
	Output          string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/ftpvault/config.yaml)",
	)
	flags.BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (debug logging)",
	)
	flags.BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)

	// Credentials
	flags.StringVarP(&globalFlags.User, "user", "u", "", "user name (anonymous login when empty)")
	flags.StringVar(&globalFlags.Password, "password", "", "password (or set "+passwordEnv+")")
	flags.StringVar(&globalFlags.SaveCredentials, "save-credentials", "none", "credentials kept by the caller: none, user, full")

	flags.StringVarP(&globalFlags.Output, "output", "o", "", "output format: human, json")

	// Logging flags
	flags.StringVar(&globalFlags.LogFile, "log-file", "", "write logs to file instead of stderr")
	flags.StringVar(&globalFlags.LogFormat, "log-format", "", "log format: text, json")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}
