// Package ftp implements storage.FileStorage on top of FTP and FTPS servers.
//
// Locations have the form
//
//	<scheme>://<settings>/<host>[:<port>]/<remote-path>
//
// where settings is the encryption mode ordinal (0 none, 1 explicit TLS,
// 2 implicit TLS). Every operation opens its own session through the
// Connector and closes it before returning, except streams, which own their
// session until they are closed.
package ftp

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/ftpvault/pkg/logging"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// DefaultAnonymousUser is the login name used for locations without
// credentials when Config.AnonymousUser is empty
const DefaultAnonymousUser = "anonymous"

// Config holds the session options that are not part of the location
type Config struct {
	Trust       TrustPolicy
	DialTimeout time.Duration
	// AnonymousUser replaces empty credentials, DefaultAnonymousUser when empty
	AnonymousUser string
}

// Storage is the FTP backend
type Storage struct {
	connector *Connector
	config    Config
	logger    logging.Logger
	// tempSuffix returns the random part of transacted temporary names
	tempSuffix func() string
}

// New creates an FTP backend. A nil logger disables logging.
func New(connector *Connector, config Config, logger logging.Logger) *Storage {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if config.AnonymousUser == "" {
		config.AnonymousUser = DefaultAnonymousUser
	}
	return &Storage{
		connector:  connector,
		config:     config,
		logger:     logger.WithFields(logging.Fields{"backend": "ftp"}),
		tempSuffix: randomSuffix,
	}
}

func randomSuffix() string {
	// six characters from the 8 hex digit first group of a UUID string
	return uuid.New().String()[:6]
}

// SupportedProtocols returns the schemes served by this backend
func (s *Storage) SupportedProtocols() []string {
	return []string{"ftp", "ftps"}
}

func (s *Storage) endpoint(loc Location, ioc storage.IOConnection) Endpoint {
	user, password := ioc.UserName, ioc.Password
	if user == "" && password == "" {
		user = s.config.AnonymousUser
	}
	return Endpoint{
		Host:       loc.Host,
		Port:       loc.Port,
		UserName:   user,
		Password:   password,
		Encryption: loc.Settings.Encryption,
		Trust:      s.config.Trust,
		Timeout:    s.config.DialTimeout,
	}
}

// connect decodes the location and opens a session for it. The caller owns
// the returned client.
func (s *Storage) connect(ctx context.Context, op string, ioc storage.IOConnection) (Location, Client, error) {
	loc, err := ParseLocation(ioc.Path)
	if err != nil {
		return Location{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	client, err := s.connector.Connect(ctx, s.endpoint(loc, ioc))
	if err != nil {
		return Location{}, nil, err
	}
	return loc, client, nil
}

// HasFileChanged always reports false: FTP has no cheap change probe
func (s *Storage) HasFileChanged(ctx context.Context, ioc storage.IOConnection, previousVersion string) (bool, error) {
	return false, nil
}

// FileVersion always returns "" (unknown)
func (s *Storage) FileVersion(ctx context.Context, ioc storage.IOConnection) (string, error) {
	return "", nil
}

// OpenRead opens a binary download at offset 0. The returned stream owns
// the session and closes it when the stream is closed.
func (s *Storage) OpenRead(ctx context.Context, ioc storage.IOConnection) (io.ReadCloser, error) {
	loc, client, err := s.connect(ctx, "open-read", ioc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	rc, err := client.OpenRead(loc.RemotePath, 0)
	if err != nil {
		return nil, translateError("open-read", ioc.Path, err)
	}

	s.logger.Debug(ctx, "opened read stream", logging.Fields{"path": ioc.Path})
	stream := &ownedReader{rc: rc, client: client, location: ioc.Path}
	client = nil
	return stream, nil
}

// OpenWrite opens a direct upload to the location. Bytes land on the target
// as they are written. The stream owns the session.
func (s *Storage) OpenWrite(ctx context.Context, ioc storage.IOConnection) (io.WriteCloser, error) {
	loc, client, err := s.connect(ctx, "open-write", ioc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	w, err := client.OpenWrite(loc.RemotePath)
	if err != nil {
		return nil, translateError("open-write", ioc.Path, err)
	}

	s.logger.Debug(ctx, "opened write stream", logging.Fields{"path": ioc.Path})
	stream := &remoteWriter{w: w, client: client, location: ioc.Path}
	client = nil
	return stream, nil
}

// OpenWriteTransaction prepares a write. With useFileTransaction the data
// is staged in a temporary sibling and renamed over the target on commit.
func (s *Storage) OpenWriteTransaction(ctx context.Context, ioc storage.IOConnection, useFileTransaction bool) (storage.WriteTransaction, error) {
	strategy := Untransacted
	if useFileTransaction {
		strategy = Transacted
	}
	t, err := s.NewTransaction(ioc, strategy)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the files and directories directly inside the location.
// Entry paths keep the settings and host prefix of the input location.
func (s *Storage) List(ctx context.Context, ioc storage.IOConnection) ([]storage.FileDescription, error) {
	loc, client, err := s.connect(ctx, "list", ioc)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	entries, err := client.List(loc.RemotePath)
	if err != nil {
		return nil, translateError("list", ioc.Path, err)
	}

	files := make([]storage.FileDescription, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}

		var isDir bool
		switch entry.Type {
		case EntryDirectory:
			isDir = true
		case EntryFile:
		default:
			continue
		}

		fullPath := entry.FullPath
		if fullPath == "" {
			fullPath = path.Join(loc.RemotePath, entry.Name)
		}

		desc := storage.FileDescription{
			Path:         loc.WithRemotePath(fullPath).String(),
			DisplayName:  entry.Name,
			IsDirectory:  isDir,
			CanRead:      true,
			CanWrite:     true,
			LastModified: entry.Modified,
		}
		if !isDir {
			desc.SizeInBytes = entry.Size
		}
		files = append(files, desc)
	}

	s.logger.Debug(ctx, "listed directory", logging.Fields{"path": ioc.Path, "entries": len(files)})
	return files, nil
}

// Stat returns modification time and size of a single file
func (s *Storage) Stat(ctx context.Context, ioc storage.IOConnection) (*storage.FileDescription, error) {
	loc, client, err := s.connect(ctx, "stat", ioc)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	modified, err := client.ModifiedTime(loc.RemotePath)
	if err != nil {
		return nil, translateError("stat", ioc.Path, err)
	}
	size, err := client.FileSize(loc.RemotePath)
	if err != nil {
		return nil, translateError("stat", ioc.Path, err)
	}

	return &storage.FileDescription{
		Path:         ioc.Path,
		DisplayName:  storage.FileName(loc.RemotePath),
		IsDirectory:  false,
		CanRead:      true,
		CanWrite:     true,
		LastModified: modified,
		SizeInBytes:  size,
	}, nil
}

// CreateDirectory creates name under parent
func (s *Storage) CreateDirectory(ctx context.Context, parent storage.IOConnection, name string) error {
	loc, client, err := s.connect(ctx, "mkdir", parent)
	if err != nil {
		return err
	}
	defer client.Close()

	target := loc.WithRemotePath(storage.JoinPath(loc.RemotePath, name))
	if err := client.MakeDir(target.RemotePath); err != nil {
		return translateError("mkdir", target.String(), err)
	}

	s.logger.Debug(ctx, "created directory", logging.Fields{"path": target.String()})
	return nil
}

// Delete removes a file, or a directory and everything below it
func (s *Storage) Delete(ctx context.Context, ioc storage.IOConnection) error {
	loc, client, err := s.connect(ctx, "delete", ioc)
	if err != nil {
		return err
	}
	defer client.Close()

	isDir, err := client.DirectoryExists(loc.RemotePath)
	if err != nil {
		return translateError("delete", ioc.Path, err)
	}

	if isDir {
		err = client.DeleteDirectory(loc.RemotePath, true)
	} else {
		err = client.Delete(loc.RemotePath)
	}
	if err != nil {
		return translateError("delete", ioc.Path, err)
	}

	s.logger.Debug(ctx, "deleted", logging.Fields{"path": ioc.Path, "directory": isDir})
	return nil
}

// Rename moves src to dst on the same server with a single rename command.
// Whether the rename is atomic is up to the server.
func (s *Storage) Rename(ctx context.Context, src, dst storage.IOConnection) error {
	srcLoc, err := ParseLocation(src.Path)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	dstLoc, err := ParseLocation(dst.Path)
	if err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	if srcLoc.Prefix() != dstLoc.Prefix() {
		return fmt.Errorf("rename: %w: %s and %s are on different servers", ErrInvalidLocation, srcLoc.Prefix(), dstLoc.Prefix())
	}

	_, client, err := s.connect(ctx, "rename", src)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Rename(srcLoc.RemotePath, dstLoc.RemotePath); err != nil {
		return translateError("rename", src.Path, err)
	}

	s.logger.Debug(ctx, "renamed", logging.Fields{"from": src.Path, "to": dst.Path})
	return nil
}

// Parent returns the containing directory of the location
func (s *Storage) Parent(ioc storage.IOConnection) (storage.IOConnection, error) {
	loc, err := ParseLocation(ioc.Path)
	if err != nil {
		return ioc, fmt.Errorf("parent: %w", err)
	}
	return ioc.WithPath(loc.Parent().String()), nil
}

// Join returns the child called name inside folder
func (s *Storage) Join(folder storage.IOConnection, name string) storage.IOConnection {
	return folder.WithPath(storage.JoinPath(folder.Path, name))
}

// DisplayName hides the settings segment
func (s *Storage) DisplayName(ioc storage.IOConnection) string {
	loc, err := ParseLocation(ioc.Path)
	if err != nil {
		return ioc.Path
	}
	return loc.Scheme + schemeSeparator + loc.HostSegment() + loc.RemotePath
}

// FilenameWithoutPathAndExt returns the remote file name minus its extension
func (s *Storage) FilenameWithoutPathAndExt(ioc storage.IOConnection) string {
	return storage.StripExtension(storage.FileName(ioc.Path))
}

// IsPermanentLocation is always true
func (s *Storage) IsPermanentLocation(ioc storage.IOConnection) bool {
	return true
}

// IsReadOnly is always false: FTP has no cheap permission probe
func (s *Storage) IsReadOnly(ioc storage.IOConnection) (bool, string) {
	return false, ""
}

// RequiresCredentials is true unless the host application stores the full credentials
func (s *Storage) RequiresCredentials(ioc storage.IOConnection) bool {
	return ioc.CredSaveMode != storage.CredSaveFull
}

// RequiresSetup is false: no interactive setup step
func (s *Storage) RequiresSetup(ioc storage.IOConnection) bool {
	return false
}

// PrepareFileUsage does nothing
func (s *Storage) PrepareFileUsage(ctx context.Context, ioc storage.IOConnection) error {
	return nil
}
