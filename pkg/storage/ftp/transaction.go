package ftp

import (
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/ftpvault/pkg/logging"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// Strategy selects how a Transaction publishes its data
type Strategy int

const (
	// Untransacted writes straight to the target. Partial data is visible
	// to readers and stays in place on abort.
	Untransacted Strategy = iota
	// Transacted writes to a temporary sibling and renames it over the
	// target on commit. On abort the temporary file is left on the server.
	Transacted
)

// String returns the strategy name
func (s Strategy) String() string {
	if s == Transacted {
		return "transacted"
	}
	return "untransacted"
}

// tempExtension marks staging files of transacted writes
const tempExtension = ".tmp"

// Transaction is a single logical write to one location.
// It is not safe for concurrent use.
type Transaction struct {
	storage  *Storage
	ioc      storage.IOConnection
	target   Location
	temp     Location
	strategy Strategy
	phase    storage.TxPhase

	// client is only set for Transacted, which owns it from Open to
	// Commit/Close. Untransacted streams own their own session.
	client Client
	stream io.WriteCloser
}

// NewTransaction prepares a write to ioc. No connection is made until Open.
func (s *Storage) NewTransaction(ioc storage.IOConnection, strategy Strategy) (*Transaction, error) {
	target, err := ParseLocation(ioc.Path)
	if err != nil {
		return nil, fmt.Errorf("open-write: %w", err)
	}

	t := &Transaction{
		storage:  s,
		ioc:      ioc,
		target:   target,
		strategy: strategy,
	}
	if strategy == Transacted {
		t.temp = target.WithRemotePath(target.RemotePath + "." + s.tempSuffix() + tempExtension)
	}
	return t, nil
}

// Strategy returns the write strategy
func (t *Transaction) Strategy() Strategy {
	return t.strategy
}

// Phase returns the current lifecycle phase
func (t *Transaction) Phase() storage.TxPhase {
	return t.phase
}

// TempLocation returns the staging location of a transacted write, or ""
func (t *Transaction) TempLocation() string {
	if t.strategy != Transacted {
		return ""
	}
	return t.temp.String()
}

// Open acquires the write stream. It may only be called once.
func (t *Transaction) Open(ctx context.Context) (io.WriteCloser, error) {
	if err := t.phase.BeginOpen(); err != nil {
		return nil, err
	}

	switch t.strategy {
	case Transacted:
		_, client, err := t.storage.connect(ctx, "open-write", t.ioc)
		if err != nil {
			t.phase = storage.TxAborted
			return nil, err
		}
		w, err := client.OpenWrite(t.temp.RemotePath)
		if err != nil {
			client.Close()
			t.phase = storage.TxAborted
			return nil, translateError("open-write", t.temp.String(), err)
		}
		t.client = client
		t.stream = &remoteWriter{w: w, location: t.temp.String()}

	default:
		w, err := t.storage.OpenWrite(ctx, t.ioc)
		if err != nil {
			t.phase = storage.TxAborted
			return nil, err
		}
		t.stream = w
	}

	return t.stream, nil
}

// Commit closes the stream and publishes the data. For Transacted an
// existing target is deleted first, then the temporary file is renamed.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.phase.BeginCommit(); err != nil {
		return err
	}
	// any early return below leaves the transaction aborted
	t.phase = storage.TxAborted

	if t.strategy != Transacted {
		if err := t.stream.Close(); err != nil {
			return err
		}
		t.phase = storage.TxCommitted
		return nil
	}

	defer t.releaseClient()

	if err := t.stream.Close(); err != nil {
		t.logLeak(ctx, err)
		return err
	}

	target := t.target.RemotePath
	exists, err := t.client.FileExists(target)
	if err != nil {
		t.logLeak(ctx, err)
		return translateError("commit", t.ioc.Path, err)
	}
	if exists {
		if err := t.client.Delete(target); err != nil {
			t.logLeak(ctx, err)
			return translateError("commit", t.ioc.Path, err)
		}
	}
	if err := t.client.Rename(t.temp.RemotePath, target); err != nil {
		t.logLeak(ctx, err)
		return translateError("commit", t.ioc.Path, err)
	}

	t.phase = storage.TxCommitted
	t.storage.logger.Debug(ctx, "committed transacted write", logging.Fields{
		"path":     t.ioc.Path,
		"replaced": exists,
	})
	return nil
}

// Close aborts the transaction unless it was committed. The stream is
// closed; a transacted write leaves its temporary file behind because the
// session may already be unusable.
func (t *Transaction) Close() error {
	switch t.phase {
	case storage.TxIdle:
		t.phase = storage.TxAborted
		return nil

	case storage.TxOpen:
		t.phase = storage.TxAborted
		err := t.stream.Close()
		if t.strategy == Transacted {
			t.releaseClient()
			t.logLeak(context.Background(), err)
		}
		return err

	default:
		return nil
	}
}

func (t *Transaction) releaseClient() {
	if t.client != nil {
		t.client.Close()
		t.client = nil
	}
}

func (t *Transaction) logLeak(ctx context.Context, cause error) {
	fields := logging.Fields{"path": t.ioc.Path, "temp": t.temp.String()}
	if cause != nil {
		t.storage.logger.Error(ctx, "transacted write aborted, temporary file left on server", cause, fields)
		return
	}
	t.storage.logger.Warn(ctx, "transacted write aborted, temporary file left on server", fields)
}
