// Package transfer copies single files between any two registered storages.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sdejongh/ftpvault/pkg/compare"
	"github.com/sdejongh/ftpvault/pkg/logging"
	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/output"
	"github.com/sdejongh/ftpvault/pkg/ratelimit"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// ErrVerificationFailed is returned when a copy does not match its source
var ErrVerificationFailed = errors.New("transfer verification failed")

// Copier streams a file from one storage to another through the
// destination's write transaction
type Copier struct {
	registry *storage.Registry
	logger   logging.Logger

	// progress receives a byte progress bar when it is a terminal
	progress     io.Writer
	showProgress bool
}

// NewCopier creates a copier resolving locations through registry.
// A nil logger disables logging.
func NewCopier(registry *storage.Registry, logger logging.Logger) *Copier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Copier{
		registry: registry,
		logger:   logger,
	}
}

// WithProgress draws a progress bar on w during copies
func (c *Copier) WithProgress(w io.Writer, enabled bool) *Copier {
	c.progress = w
	c.showProgress = enabled && w != nil
	return c
}

// Copy transfers op.Source to op.Dest. creds supplies the credentials used
// for both sides. The report is returned even when the copy fails, unless
// the operation itself is invalid.
func (c *Copier) Copy(ctx context.Context, op *models.TransferOperation, creds storage.IOConnection) (*models.TransferReport, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	report := models.NewTransferReport(op)
	log := c.logger.WithFields(logging.Fields{"operation_id": op.ID, "source": op.Source, "dest": op.Dest})

	src, dst := creds.WithPath(op.Source), creds.WithPath(op.Dest)
	n, err := c.copy(ctx, op, src, dst)
	if err == nil && op.Verify {
		err = c.verify(ctx, op, src, dst)
		report.Verified = err == nil
	}
	report.BytesTransferred = n
	report.Finish(err)

	if err != nil {
		log.Error(ctx, "transfer failed", err, logging.Fields{"bytes": n})
		return report, err
	}
	log.Info(ctx, "transfer complete", logging.Fields{
		"bytes":      n,
		"duration":   report.Duration.String(),
		"transacted": op.Transacted,
	})
	return report, nil
}

func (c *Copier) copy(ctx context.Context, op *models.TransferOperation, src, dst storage.IOConnection) (int64, error) {
	srcFS, err := c.registry.ForLocation(src.Path)
	if err != nil {
		return 0, err
	}
	dstFS, err := c.registry.ForLocation(dst.Path)
	if err != nil {
		return 0, err
	}

	info, err := srcFS.Stat(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("failed to get source metadata: %w", err)
	}
	if info.IsDirectory {
		return 0, fmt.Errorf("%s is a directory", op.Source)
	}

	reader, err := srcFS.OpenRead(ctx, src)
	if err != nil {
		return 0, fmt.Errorf("failed to read source file: %w", err)
	}
	readerClosed := false
	defer func() {
		if !readerClosed {
			reader.Close()
		}
	}()

	tx, err := dstFS.OpenWriteTransaction(ctx, dst, op.Transacted)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare destination: %w", err)
	}
	defer tx.Close()

	writer, err := tx.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open destination: %w", err)
	}

	bar := output.NewProgress(c.progress, info.SizeInBytes, c.showProgress)
	var in io.Reader = &contextReader{ctx: ctx, r: reader}
	in = ratelimit.NewReader(ctx, in, ratelimit.NewLimiter(op.BandwidthLimit))
	in = bar.Reader(in)

	n, err := io.CopyBuffer(onlyWriter{writer}, in, make([]byte, op.BufferSize))
	bar.Finish()
	if err != nil {
		return n, fmt.Errorf("failed to copy data: %w", err)
	}

	// the source close completes the download; a failure means truncated data
	readerClosed = true
	if err := reader.Close(); err != nil {
		return n, fmt.Errorf("failed to finish reading source: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return n, fmt.Errorf("failed to commit destination: %w", err)
	}
	return n, nil
}

// verify compares the committed destination with the source
func (c *Copier) verify(ctx context.Context, op *models.TransferOperation, src, dst storage.IOConnection) error {
	srcFS, err := c.registry.ForLocation(src.Path)
	if err != nil {
		return err
	}
	dstFS, err := c.registry.ForLocation(dst.Path)
	if err != nil {
		return err
	}

	comparator := compare.NewCompositeComparator(true, op.BufferSize)
	limiter := ratelimit.NewLimiter(op.BandwidthLimit)
	comparator.SetReaderWrapper(func(r io.Reader) io.Reader {
		return ratelimit.NewReader(ctx, r, limiter)
	})

	result, err := comparator.Compare(ctx,
		compare.Target{Storage: srcFS, Conn: src},
		compare.Target{Storage: dstFS, Conn: dst},
	)
	if err != nil {
		return fmt.Errorf("failed to verify transfer: %w", err)
	}
	if result.Result != compare.Same {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, result.Reason)
	}

	c.logger.Debug(ctx, "transfer verified", logging.Fields{"operation_id": op.ID, "method": comparator.Name()})
	return nil
}

// Move renames within one backend when possible and falls back to copy
// and delete otherwise
func (c *Copier) Move(ctx context.Context, op *models.TransferOperation, creds storage.IOConnection) (*models.TransferReport, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}

	srcFS, err := c.registry.ForLocation(op.Source)
	if err != nil {
		return nil, err
	}
	dstFS, err := c.registry.ForLocation(op.Dest)
	if err != nil {
		return nil, err
	}

	if srcFS == dstFS {
		report := models.NewTransferReport(op)
		err := srcFS.Rename(ctx, creds.WithPath(op.Source), creds.WithPath(op.Dest))
		switch {
		case err == nil:
			report.Finish(nil)
			return report, nil
		case storage.KindOf(err) != storage.KindUnknown:
			// the server answered: the rename itself is not possible
			report.Finish(err)
			return report, err
		}
		c.logger.Debug(ctx, "rename not possible, copying instead", logging.Fields{"source": op.Source, "dest": op.Dest, "reason": err.Error()})
	}

	report, err := c.Copy(ctx, op, creds)
	if err != nil {
		return report, err
	}

	if err := srcFS.Delete(ctx, creds.WithPath(op.Source)); err != nil {
		report.Finish(err)
		return report, fmt.Errorf("copied, but failed to delete source: %w", err)
	}
	return report, nil
}

// contextReader stops a copy between two reads once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// onlyWriter hides ReaderFrom so io.CopyBuffer uses the given buffer and
// every read passes through the limiter and progress bar
type onlyWriter struct {
	w io.Writer
}

func (w onlyWriter) Write(p []byte) (int, error) {
	return w.w.Write(p)
}
