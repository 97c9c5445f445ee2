package ftp

import (
	"context"
	"io"
	"path"
	"sync"
	"time"

	goftp "github.com/jlaffaye/ftp"
)

// NetDialer dials real FTP servers with github.com/jlaffaye/ftp
type NetDialer struct {
	// DebugOutput receives the control channel dialogue when set
	DebugOutput io.Writer
	// DisableEPSV forces PASV for servers with broken EPSV support
	DisableEPSV bool
}

// Dial connects, negotiates TLS according to the endpoint and logs in with
// the endpoint's credentials as given.
// Dial errors are returned unwrapped so refused connections stay
// recognisable by IsConnectionRefused.
func (d NetDialer) Dial(ctx context.Context, endpoint Endpoint) (Client, error) {
	opts := []goftp.DialOption{goftp.DialWithContext(ctx)}
	if endpoint.Timeout > 0 {
		opts = append(opts, goftp.DialWithTimeout(endpoint.Timeout))
	}
	switch endpoint.Encryption {
	case EncryptionExplicit:
		opts = append(opts, goftp.DialWithExplicitTLS(newSessionTLS(endpoint)))
	case EncryptionImplicit:
		opts = append(opts, goftp.DialWithTLS(newSessionTLS(endpoint)))
	}
	if d.DebugOutput != nil {
		opts = append(opts, goftp.DialWithDebugOutput(d.DebugOutput))
	}
	if d.DisableEPSV {
		opts = append(opts, goftp.DialWithDisabledEPSV(true))
	}

	conn, err := goftp.Dial(endpoint.Address(), opts...)
	if err != nil {
		return nil, err
	}

	if err := conn.Login(endpoint.UserName, endpoint.Password); err != nil {
		conn.Quit()
		return nil, err
	}

	return &netClient{conn: conn}, nil
}

// netClient adapts *goftp.ServerConn to Client
type netClient struct {
	conn *goftp.ServerConn
}

func (c *netClient) List(dir string) ([]Entry, error) {
	items, err := c.conn.List(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry := Entry{
			Name:     item.Name,
			FullPath: path.Join(dir, item.Name),
			Modified: item.Time,
			Size:     int64(item.Size),
		}
		switch item.Type {
		case goftp.EntryTypeFile:
			entry.Type = EntryFile
		case goftp.EntryTypeFolder:
			entry.Type = EntryDirectory
		case goftp.EntryTypeLink:
			entry.Type = EntryLink
		default:
			entry.Type = EntryOther
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (c *netClient) FileExists(p string) (bool, error) {
	if _, err := c.conn.FileSize(p); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DirectoryExists probes with CWD and restores the working directory
func (c *netClient) DirectoryExists(p string) (bool, error) {
	cwd, err := c.conn.CurrentDir()
	if err != nil {
		return false, err
	}
	if err := c.conn.ChangeDir(p); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, c.conn.ChangeDir(cwd)
}

func (c *netClient) FileSize(p string) (int64, error) {
	return c.conn.FileSize(p)
}

func (c *netClient) ModifiedTime(p string) (time.Time, error) {
	return c.conn.GetTime(p)
}

func (c *netClient) Delete(p string) error {
	return c.conn.Delete(p)
}

func (c *netClient) DeleteDirectory(p string, recursive bool) error {
	if recursive {
		return c.conn.RemoveDirRecur(p)
	}
	return c.conn.RemoveDir(p)
}

func (c *netClient) MakeDir(p string) error {
	return c.conn.MakeDir(p)
}

func (c *netClient) Rename(from, to string) error {
	return c.conn.Rename(from, to)
}

func (c *netClient) OpenRead(p string, offset int64) (io.ReadCloser, error) {
	return c.conn.RetrFrom(p, uint64(offset))
}

// OpenWrite feeds STOR from a pipe. The library only accepts an io.Reader,
// so the transfer runs in its own goroutine until the writer is closed.
func (c *netClient) OpenWrite(p string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	w := &uploadWriter{pw: pw, done: make(chan error, 1)}
	go func() {
		err := c.conn.Stor(p, pr)
		// unblocks pending writes when the server refuses the upload
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

func (c *netClient) Close() error {
	return c.conn.Quit()
}

// uploadWriter is the write end of a running STOR
type uploadWriter struct {
	pw   *io.PipeWriter
	done chan error
	once sync.Once
	err  error
}

func (w *uploadWriter) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close ends the upload and waits for the server's final reply
func (w *uploadWriter) Close() error {
	w.once.Do(func() {
		w.pw.Close()
		w.err = <-w.done
	})
	return w.err
}
