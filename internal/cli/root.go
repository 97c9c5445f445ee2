package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the ftpvault command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ftpvault",
		Short: "Read and write files on FTP and FTPS servers",
		Long: `ftpvault lists, downloads, uploads and manages files on FTP servers,
with or without TLS, and copies them between local disks and servers.
Uploads can be transacted so a failed transfer never corrupts the target.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewStatCommand())
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewPutCommand())
	rootCmd.AddCommand(NewCopyCommand())
	rootCmd.AddCommand(NewMoveCommand())
	rootCmd.AddCommand(NewRemoveCommand())
	rootCmd.AddCommand(NewMkdirCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
