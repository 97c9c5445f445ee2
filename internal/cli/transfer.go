package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/storage"
	"github.com/sdejongh/ftpvault/pkg/transfer"
	"github.com/spf13/cobra"
)

// TransferFlags holds the flags shared by get, put, cp and mv
type TransferFlags struct {
	Transacted bool
	Verify     bool
	Bandwidth  string
}

func addTransferFlags(cmd *cobra.Command, flags *TransferFlags) {
	cmd.Flags().BoolVar(&flags.Transacted, "transacted", true, "write to a temporary file and rename it over the target on success")
	cmd.Flags().BoolVar(&flags.Verify, "verify", false, "compare size and SHA-256 of source and destination after the copy")
	cmd.Flags().StringVarP(&flags.Bandwidth, "bandwidth", "b", "", "bandwidth limit per second (e.g., \"512K\", \"10M\")")
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	var flags TransferFlags
	cmd := &cobra.Command{
		Use:   "get <location> <local-file>",
		Short: "Download a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, &flags, args[0], args[1], false)
		},
	}
	addTransferFlags(cmd, &flags)
	return cmd
}

// NewPutCommand creates the put command
func NewPutCommand() *cobra.Command {
	var flags TransferFlags
	cmd := &cobra.Command{
		Use:   "put <local-file> <location>",
		Short: "Upload a file",
		Long: `Upload a local file.

With --transacted (the default) the data is first written to
<target>.<random>.tmp next to the target and renamed over it once the upload
completed, so readers never see a half written file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, &flags, args[0], args[1], false)
		},
	}
	addTransferFlags(cmd, &flags)
	return cmd
}

// NewCopyCommand creates the cp command
func NewCopyCommand() *cobra.Command {
	var flags TransferFlags
	cmd := &cobra.Command{
		Use:   "cp <source> <dest>",
		Short: "Copy a file between any two locations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, &flags, args[0], args[1], false)
		},
	}
	addTransferFlags(cmd, &flags)
	return cmd
}

// NewMoveCommand creates the mv command
func NewMoveCommand() *cobra.Command {
	var flags TransferFlags
	cmd := &cobra.Command{
		Use:   "mv <source> <dest>",
		Short: "Move or rename a file",
		Long: `Rename a file when source and destination live on the same server,
otherwise copy it and delete the source.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, &flags, args[0], args[1], true)
		},
	}
	addTransferFlags(cmd, &flags)
	return cmd
}

func runTransfer(cmd *cobra.Command, flags *TransferFlags, srcArg, dstArg string, move bool) error {
	return withSession(cmd, func(ctx context.Context, s *session) error {
		_, src, err := s.resolve(ctx, srcArg)
		if err != nil {
			return err
		}
		dstFS, dst, err := s.resolve(ctx, dstArg)
		if err != nil {
			return err
		}
		dst = intoDirectory(ctx, dstFS, dst, src.Path)

		op, err := createTransferOperation(cmd, flags, s, src.Path, dst.Path)
		if err != nil {
			return err
		}

		copier := transfer.NewCopier(s.registry, s.logger).
			WithProgress(s.stderr, s.cfg.Transfer.Progress && s.formatter.Name() == "human")

		var report *models.TransferReport
		if move {
			report, err = copier.Move(ctx, op, s.creds)
		} else {
			report, err = copier.Copy(ctx, op, s.creds)
		}
		if report != nil && err == nil {
			return s.formatter.Transfer(report)
		}
		return err
	})
}

// intoDirectory appends the source file name when dst is an existing
// directory. Backends that cannot tell directories apart leave dst as is.
func intoDirectory(ctx context.Context, fs storage.FileStorage, dst storage.IOConnection, srcPath string) storage.IOConnection {
	desc, err := fs.Stat(ctx, dst)
	if err != nil || !desc.IsDirectory {
		return dst
	}
	return fs.Join(dst, storage.FileName(srcPath))
}

// createTransferOperation creates a transfer operation from configuration
// and command-line flags
func createTransferOperation(cmd *cobra.Command, flags *TransferFlags, s *session, src, dst string) (*models.TransferOperation, error) {
	op := models.NewTransferOperation(src, dst, s.cfg.Transfer.Transacted)
	if cmd.Flags().Changed("transacted") {
		op.Transacted = flags.Transacted
	}
	op.Verify = s.cfg.Transfer.Verify
	if cmd.Flags().Changed("verify") {
		op.Verify = flags.Verify
	}
	op.BufferSize = s.cfg.Transfer.BufferSize
	op.BandwidthLimit = s.cfg.Transfer.BandwidthLimit

	if flags.Bandwidth != "" {
		limit, err := parseBandwidth(flags.Bandwidth)
		if err != nil {
			return nil, err
		}
		op.BandwidthLimit = limit
	}

	if err := op.Validate(); err != nil {
		return nil, err
	}
	return op, nil
}

// parseBandwidth parses a human readable rate such as "10M" or "512 KiB"
func parseBandwidth(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth limit %q: %w", s, err)
	}
	return int64(n), nil
}
