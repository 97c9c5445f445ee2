package ftp

import (
	"context"
	"io"
	"net"
	"strconv"
	"time"
)

// EntryType classifies a listing entry
type EntryType int

const (
	EntryFile EntryType = iota
	EntryDirectory
	EntryLink
	EntryOther
)

// Entry is one item of a remote directory listing
type Entry struct {
	Name     string
	FullPath string
	Type     EntryType
	Modified time.Time
	Size     int64
}

// Client is a live, single-use FTP session.
//
// Remote command failures are reported as *textproto.Error so the storage
// layer can read the status code.
type Client interface {
	// List returns the entries of a directory with modification time and size
	List(path string) ([]Entry, error)

	FileExists(path string) (bool, error)
	DirectoryExists(path string) (bool, error)
	FileSize(path string) (int64, error)
	ModifiedTime(path string) (time.Time, error)

	Delete(path string) error
	DeleteDirectory(path string, recursive bool) error
	MakeDir(path string) error
	Rename(from, to string) error

	// OpenRead starts a binary download at offset. No other command may be
	// issued until the stream is closed.
	OpenRead(path string, offset int64) (io.ReadCloser, error)

	// OpenWrite starts a binary upload. The upload completes when the
	// stream is closed.
	OpenWrite(path string) (io.WriteCloser, error)

	// Close ends the session
	Close() error
}

// Dialer opens sessions. NetDialer is the production implementation.
type Dialer interface {
	Dial(ctx context.Context, endpoint Endpoint) (Client, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, endpoint Endpoint) (Client, error)

// Dial calls f
func (f DialerFunc) Dial(ctx context.Context, endpoint Endpoint) (Client, error) {
	return f(ctx, endpoint)
}

// Endpoint holds everything needed to open a session. It is a plain value:
// derived sessions (data channels) get a copy, never a reference.
type Endpoint struct {
	Host       string
	Port       int
	UserName   string
	Password   string
	Encryption EncryptionMode
	Trust      TrustPolicy
	// Timeout bounds a single dial attempt, 0 means no timeout
	Timeout time.Duration
}

// Address returns host:port
func (e Endpoint) Address() string {
	port := e.Port
	if port == 0 {
		port = e.Encryption.DefaultPort()
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}
