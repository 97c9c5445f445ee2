package storage

import (
	"context"
	"io"
	"time"
)

// CredSaveMode records how much of the credentials the host application persists
type CredSaveMode int

const (
	// CredSaveNone persists neither user name nor password
	CredSaveNone CredSaveMode = iota
	// CredSaveUserNameOnly persists the user name only
	CredSaveUserNameOnly
	// CredSaveFull persists user name and password
	CredSaveFull
)

// IOConnection is the opaque address of a file or directory together with
// the credentials needed to reach it
type IOConnection struct {
	Path         string
	UserName     string
	Password     string
	CredSaveMode CredSaveMode
}

// WithPath returns a copy of the connection pointing at another path
func (c IOConnection) WithPath(path string) IOConnection {
	c.Path = path
	return c
}

// FileDescription is a read-only snapshot of one entry
type FileDescription struct {
	Path         string    `json:"path"`
	DisplayName  string    `json:"display_name"`
	IsDirectory  bool      `json:"is_directory"`
	CanRead      bool      `json:"can_read"`
	CanWrite     bool      `json:"can_write"`
	LastModified time.Time `json:"last_modified"`
	// SizeInBytes is only meaningful for files
	SizeInBytes int64 `json:"size_in_bytes"`
}

// WriteTransaction wraps a single logical write.
//
// Lifecycle: Open -> Commit, or Open -> Close (abort). Close after Commit is
// a no-op, so callers can always defer Close.
type WriteTransaction interface {
	// Open acquires the write stream. It may be called once.
	Open(ctx context.Context) (io.WriteCloser, error)

	// Commit publishes what was written to the stream
	Commit(ctx context.Context) error

	// Close aborts the transaction unless it was committed
	Close() error
}

// FileStorage is the storage contract shared by local and remote backends
type FileStorage interface {
	// SupportedProtocols lists the location schemes handled by this backend
	SupportedProtocols() []string

	// HasFileChanged reports whether the file changed since previousVersion.
	// Backends without a cheap check return false.
	HasFileChanged(ctx context.Context, ioc IOConnection, previousVersion string) (bool, error)

	// FileVersion returns a cheap version token, or "" when unknown
	FileVersion(ctx context.Context, ioc IOConnection) (string, error)

	// OpenRead opens the file for reading from offset 0
	OpenRead(ctx context.Context, ioc IOConnection) (io.ReadCloser, error)

	// OpenWriteTransaction prepares a write to the file
	OpenWriteTransaction(ctx context.Context, ioc IOConnection, useFileTransaction bool) (WriteTransaction, error)

	// List returns the direct children of a directory
	List(ctx context.Context, ioc IOConnection) ([]FileDescription, error)

	// Stat returns metadata for a single file
	Stat(ctx context.Context, ioc IOConnection) (*FileDescription, error)

	// CreateDirectory creates name under parent
	CreateDirectory(ctx context.Context, parent IOConnection, name string) error

	// Delete removes a file, or a directory recursively
	Delete(ctx context.Context, ioc IOConnection) error

	// Rename moves src to dst
	Rename(ctx context.Context, src, dst IOConnection) error

	// Parent returns the containing directory
	Parent(ioc IOConnection) (IOConnection, error)

	// Join returns the child called name inside folder
	Join(folder IOConnection, name string) IOConnection

	// DisplayName returns a human readable form of the location
	DisplayName(ioc IOConnection) string

	// FilenameWithoutPathAndExt returns the base name minus its extension
	FilenameWithoutPathAndExt(ioc IOConnection) string

	IsPermanentLocation(ioc IOConnection) bool
	IsReadOnly(ioc IOConnection) (readOnly bool, reason string)
	RequiresCredentials(ioc IOConnection) bool
	RequiresSetup(ioc IOConnection) bool

	// PrepareFileUsage runs any setup needed before the location is used
	PrepareFileUsage(ctx context.Context, ioc IOConnection) error
}
