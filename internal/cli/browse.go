package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
)

// NewListCommand creates the ls command
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <location>",
		Short: "List a directory",
		Long: `List the direct children of a local or remote directory.

Remote locations look like ftp://0/example.com/path, where the number after
the scheme selects the encryption: 0 none, 1 explicit TLS, 2 implicit TLS.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				fs, ioc, err := s.resolve(ctx, args[0])
				if err != nil {
					return err
				}
				files, err := fs.List(ctx, ioc)
				if err != nil {
					return err
				}
				sort.Slice(files, func(i, j int) bool {
					return files[i].DisplayName < files[j].DisplayName
				})
				return s.formatter.Listing(fs.DisplayName(ioc), files)
			})
		},
	}
}

// NewStatCommand creates the stat command
func NewStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <location>",
		Short: "Show file metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				fs, ioc, err := s.resolve(ctx, args[0])
				if err != nil {
					return err
				}
				desc, err := fs.Stat(ctx, ioc)
				if err != nil {
					return err
				}
				return s.formatter.Stat(desc)
			})
		},
	}
}

// NewRemoveCommand creates the rm command
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <location>",
		Short: "Delete a file or a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				fs, ioc, err := s.resolve(ctx, args[0])
				if err != nil {
					return err
				}
				if err := fs.Delete(ctx, ioc); err != nil {
					return err
				}
				return s.formatter.Done("deleted", fs.DisplayName(ioc))
			})
		},
	}
}

// NewMkdirCommand creates the mkdir command
func NewMkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <parent-location> <name>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				fs, parent, err := s.resolve(ctx, args[0])
				if err != nil {
					return err
				}
				if err := fs.CreateDirectory(ctx, parent, args[1]); err != nil {
					return err
				}
				return s.formatter.Done("created", fs.DisplayName(fs.Join(parent, args[1])))
			})
		},
	}
}

// withSession runs fn with a fresh session and maps its error to an exit code
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.fail(fn(ctx, s))
}
