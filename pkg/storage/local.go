package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// Local is a filesystem-based storage backend.
// Locations are absolute paths, optionally prefixed with file://
type Local struct{}

// NewLocal creates a new local filesystem backend
func NewLocal() *Local {
	return &Local{}
}

// SupportedProtocols returns the schemes handled by the local backend
func (l *Local) SupportedProtocols() []string {
	return []string{"file"}
}

// localPath converts a location into a filesystem path
func localPath(location string) (string, error) {
	p := strings.TrimPrefix(location, fileScheme)
	if p == "" {
		return "", fmt.Errorf("empty local path")
	}
	return filepath.FromSlash(p), nil
}

// localError maps an os error onto the storage taxonomy
func localError(op, location string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return NewError(KindNotFound, op, location, err)
	}
	return NewError(KindLocalIO, op, location, err)
}

func describe(location string, info fs.FileInfo) FileDescription {
	mode := info.Mode().Perm()
	return FileDescription{
		Path:         location,
		DisplayName:  info.Name(),
		IsDirectory:  info.IsDir(),
		CanRead:      mode&0o400 != 0,
		CanWrite:     mode&0o200 != 0,
		LastModified: info.ModTime(),
		SizeInBytes:  info.Size(),
	}
}

// HasFileChanged compares the current size/mtime token with previousVersion
func (l *Local) HasFileChanged(ctx context.Context, ioc IOConnection, previousVersion string) (bool, error) {
	if previousVersion == "" {
		return false, nil
	}
	current, err := l.FileVersion(ctx, ioc)
	if err != nil {
		return false, err
	}
	return current != previousVersion, nil
}

// FileVersion returns a token built from modification time and size
func (l *Local) FileVersion(ctx context.Context, ioc IOConnection) (string, error) {
	info, err := l.stat("version", ioc.Path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

func (l *Local) stat(op, location string) (fs.FileInfo, error) {
	p, err := localPath(location)
	if err != nil {
		return nil, NewError(KindLocalIO, op, location, err)
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, localError(op, location, err)
	}
	return info, nil
}

// OpenRead opens a file for reading
func (l *Local) OpenRead(ctx context.Context, ioc IOConnection) (io.ReadCloser, error) {
	p, err := localPath(ioc.Path)
	if err != nil {
		return nil, NewError(KindLocalIO, "open-read", ioc.Path, err)
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, localError("open-read", ioc.Path, err)
	}
	return file, nil
}

// OpenWriteTransaction prepares a write. Transacted writes go to a temporary
// sibling that is renamed over the target on commit.
func (l *Local) OpenWriteTransaction(ctx context.Context, ioc IOConnection, useFileTransaction bool) (WriteTransaction, error) {
	p, err := localPath(ioc.Path)
	if err != nil {
		return nil, NewError(KindLocalIO, "open-write", ioc.Path, err)
	}
	return &localTransaction{location: ioc.Path, path: p, transacted: useFileTransaction}, nil
}

// List returns the direct children of a directory
func (l *Local) List(ctx context.Context, ioc IOConnection) ([]FileDescription, error) {
	p, err := localPath(ioc.Path)
	if err != nil {
		return nil, NewError(KindLocalIO, "list", ioc.Path, err)
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, localError("list", ioc.Path, err)
	}

	files := make([]FileDescription, 0, len(entries))
	for _, entry := range entries {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := entry.Info()
		if err != nil {
			return nil, localError("list", ioc.Path, err)
		}
		files = append(files, describe(JoinPath(ioc.Path, entry.Name()), info))
	}

	return files, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, ioc IOConnection) (*FileDescription, error) {
	info, err := l.stat("stat", ioc.Path)
	if err != nil {
		return nil, err
	}
	desc := describe(ioc.Path, info)
	return &desc, nil
}

// CreateDirectory creates a single directory under parent
func (l *Local) CreateDirectory(ctx context.Context, parent IOConnection, name string) error {
	target := JoinPath(parent.Path, name)
	p, err := localPath(target)
	if err != nil {
		return NewError(KindLocalIO, "mkdir", target, err)
	}
	if err := os.Mkdir(p, 0755); err != nil {
		return localError("mkdir", target, err)
	}
	return nil
}

// Delete removes a file or directory
func (l *Local) Delete(ctx context.Context, ioc IOConnection) error {
	// os.RemoveAll succeeds on missing paths, stat first to report it
	if _, err := l.stat("delete", ioc.Path); err != nil {
		return err
	}
	p, _ := localPath(ioc.Path)
	if err := os.RemoveAll(p); err != nil {
		return localError("delete", ioc.Path, err)
	}
	return nil
}

// Rename moves src to dst, replacing dst if it exists
func (l *Local) Rename(ctx context.Context, src, dst IOConnection) error {
	from, err := localPath(src.Path)
	if err != nil {
		return NewError(KindLocalIO, "rename", src.Path, err)
	}
	to, err := localPath(dst.Path)
	if err != nil {
		return NewError(KindLocalIO, "rename", dst.Path, err)
	}
	if err := os.Rename(from, to); err != nil {
		return localError("rename", src.Path, err)
	}
	return nil
}

// Parent returns the containing directory
func (l *Local) Parent(ioc IOConnection) (IOConnection, error) {
	p, err := localPath(ioc.Path)
	if err != nil {
		return ioc, NewError(KindLocalIO, "parent", ioc.Path, err)
	}
	dir := filepath.ToSlash(filepath.Dir(filepath.Clean(p)))
	if strings.HasPrefix(ioc.Path, fileScheme) {
		dir = fileScheme + dir
	}
	return ioc.WithPath(dir), nil
}

// Join returns the child called name inside folder
func (l *Local) Join(folder IOConnection, name string) IOConnection {
	return folder.WithPath(JoinPath(folder.Path, name))
}

// DisplayName returns the path without the file:// prefix
func (l *Local) DisplayName(ioc IOConnection) string {
	return strings.TrimPrefix(ioc.Path, fileScheme)
}

// FilenameWithoutPathAndExt returns the base name minus its extension
func (l *Local) FilenameWithoutPathAndExt(ioc IOConnection) string {
	return StripExtension(FileName(ioc.Path))
}

// IsPermanentLocation is always true for local disks
func (l *Local) IsPermanentLocation(ioc IOConnection) bool {
	return true
}

// IsReadOnly reports a file that exists but lacks the owner write bit
func (l *Local) IsReadOnly(ioc IOConnection) (bool, string) {
	info, err := l.stat("stat", ioc.Path)
	if err != nil {
		return false, ""
	}
	if info.Mode().Perm()&0o200 == 0 {
		return true, "file is not writable"
	}
	return false, ""
}

// RequiresCredentials is false: the local disk has no login
func (l *Local) RequiresCredentials(ioc IOConnection) bool {
	return false
}

// RequiresSetup is false for local disks
func (l *Local) RequiresSetup(ioc IOConnection) bool {
	return false
}

// PrepareFileUsage does nothing for local disks
func (l *Local) PrepareFileUsage(ctx context.Context, ioc IOConnection) error {
	return nil
}

// localTransaction writes either straight to the target or to a temporary
// sibling renamed over the target on commit
type localTransaction struct {
	location   string
	path       string
	transacted bool
	phase      TxPhase
	file       *os.File
}

// Open creates the write stream
func (t *localTransaction) Open(ctx context.Context) (io.WriteCloser, error) {
	if err := t.phase.BeginOpen(); err != nil {
		return nil, err
	}

	var (
		file *os.File
		err  error
	)
	if t.transacted {
		file, err = os.CreateTemp(filepath.Dir(t.path), filepath.Base(t.path)+".*.tmp")
	} else {
		file, err = os.Create(t.path)
	}
	if err != nil {
		t.phase = TxAborted
		return nil, localError("open-write", t.location, err)
	}

	t.file = file
	return file, nil
}

// Commit closes the stream and, for transacted writes, renames the
// temporary file over the target
func (t *localTransaction) Commit(ctx context.Context) error {
	if err := t.phase.BeginCommit(); err != nil {
		return err
	}
	t.phase = TxAborted

	if err := t.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		t.cleanup()
		return localError("commit", t.location, err)
	}

	if t.transacted {
		if err := os.Rename(t.file.Name(), t.path); err != nil {
			t.cleanup()
			return localError("commit", t.location, err)
		}
	}

	t.phase = TxCommitted
	return nil
}

// Close aborts an open transaction. The temporary file of a transacted
// write is removed.
func (t *localTransaction) Close() error {
	switch t.phase {
	case TxIdle:
		t.phase = TxAborted
		return nil
	case TxOpen:
		t.phase = TxAborted
		err := t.file.Close()
		t.cleanup()
		if err != nil && !errors.Is(err, os.ErrClosed) {
			return localError("abort", t.location, err)
		}
		return nil
	default:
		return nil
	}
}

func (t *localTransaction) cleanup() {
	if t.transacted && t.file != nil {
		os.Remove(t.file.Name())
	}
}
