package ftp

import (
	"context"
	"io"
	"net/textproto"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sdejongh/ftpvault/pkg/logging"
)

// fakeServer is an in-memory FTP server shared by every session dialed
// through it. Uploads are written through, so partial data is visible.
type fakeServer struct {
	mu       sync.Mutex
	files    map[string][]byte
	modified map[string]time.Time
	dirs     map[string]bool
	links    map[string]bool

	// dialErrs are returned by the first dials, in order
	dialErrs  []error
	dials     int
	endpoints []Endpoint
	open      int // sessions not yet closed

	// fail makes the named command return the error
	fail     map[string]error
	commands []string

	// truncated downloads stop halfway and report an aborted transfer
	truncated map[string]bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		files:    make(map[string][]byte),
		modified: make(map[string]time.Time),
		dirs:     map[string]bool{"/": true},
		links:    make(map[string]bool),
		fail:     make(map[string]error),

		truncated: make(map[string]bool),
	}
}

func (s *fakeServer) addFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = data
	s.modified[p] = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func (s *fakeServer) addDir(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[p] = true
}

func (s *fakeServer) file(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[p]
	return append([]byte(nil), data...), ok
}

func (s *fakeServer) fileNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *fakeServer) openSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *fakeServer) issued(cmd string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

func (s *fakeServer) Dial(ctx context.Context, endpoint Endpoint) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++
	s.endpoints = append(s.endpoints, endpoint)
	if len(s.dialErrs) > 0 {
		err := s.dialErrs[0]
		s.dialErrs = s.dialErrs[1:]
		return nil, err
	}
	s.open++
	return &fakeClient{server: s}, nil
}

func notFound(p string) error {
	return &textproto.Error{Code: StatusFileUnavailable, Msg: p + ": No such file or directory"}
}

type fakeClient struct {
	server *fakeServer
	closed bool
}

// begin records the command and returns the injected failure, if any.
// The caller holds no lock.
func (c *fakeClient) begin(cmd string) error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.commands = append(c.server.commands, cmd)
	return c.server.fail[cmd]
}

func (c *fakeClient) List(dir string) ([]Entry, error) {
	if err := c.begin("LIST"); err != nil {
		return nil, err
	}
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirs[dir] {
		return nil, notFound(dir)
	}
	entries := []Entry{
		{Name: ".", Type: EntryDirectory},
		{Name: "..", Type: EntryDirectory},
	}
	for p, data := range s.files {
		if path.Dir(p) == dir {
			entries = append(entries, Entry{Name: path.Base(p), FullPath: p, Type: EntryFile, Size: int64(len(data)), Modified: s.modified[p]})
		}
	}
	for p := range s.dirs {
		if p != "/" && path.Dir(p) == dir {
			entries = append(entries, Entry{Name: path.Base(p), FullPath: p, Type: EntryDirectory})
		}
	}
	for p := range s.links {
		if path.Dir(p) == dir {
			entries = append(entries, Entry{Name: path.Base(p), FullPath: p, Type: EntryLink})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (c *fakeClient) FileExists(p string) (bool, error) {
	if err := c.begin("SIZE"); err != nil {
		return false, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	_, ok := c.server.files[p]
	return ok, nil
}

func (c *fakeClient) DirectoryExists(p string) (bool, error) {
	if err := c.begin("CWD"); err != nil {
		return false, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	return c.server.dirs[p], nil
}

func (c *fakeClient) FileSize(p string) (int64, error) {
	if err := c.begin("SIZE"); err != nil {
		return 0, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	data, ok := c.server.files[p]
	if !ok {
		return 0, notFound(p)
	}
	return int64(len(data)), nil
}

func (c *fakeClient) ModifiedTime(p string) (time.Time, error) {
	if err := c.begin("MDTM"); err != nil {
		return time.Time{}, err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	if _, ok := c.server.files[p]; !ok {
		return time.Time{}, notFound(p)
	}
	return c.server.modified[p], nil
}

func (c *fakeClient) Delete(p string) error {
	if err := c.begin("DELE"); err != nil {
		return err
	}
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	if _, ok := c.server.files[p]; !ok {
		return notFound(p)
	}
	delete(c.server.files, p)
	delete(c.server.modified, p)
	return nil
}

func (c *fakeClient) DeleteDirectory(p string, recursive bool) error {
	if err := c.begin("RMD"); err != nil {
		return err
	}
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirs[p] {
		return notFound(p)
	}
	prefix := p + "/"
	for f := range s.files {
		if strings.HasPrefix(f, prefix) {
			if !recursive {
				return &textproto.Error{Code: 550, Msg: "Directory not empty"}
			}
			delete(s.files, f)
		}
	}
	for d := range s.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(s.dirs, d)
		}
	}
	delete(s.dirs, p)
	return nil
}

func (c *fakeClient) MakeDir(p string) error {
	if err := c.begin("MKD"); err != nil {
		return err
	}
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirs[path.Dir(p)] {
		return notFound(path.Dir(p))
	}
	s.dirs[p] = true
	return nil
}

func (c *fakeClient) Rename(from, to string) error {
	if err := c.begin("RNFR"); err != nil {
		return err
	}
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[from]
	if !ok {
		return notFound(from)
	}
	delete(s.files, from)
	s.files[to] = data
	s.modified[to] = s.modified[from]
	delete(s.modified, from)
	return nil
}

func (c *fakeClient) OpenRead(p string, offset int64) (io.ReadCloser, error) {
	if err := c.begin("RETR"); err != nil {
		return nil, err
	}
	data, ok := c.server.file(p)
	if !ok {
		return nil, notFound(p)
	}
	data = data[offset:]
	c.server.mu.Lock()
	truncated := c.server.truncated[p]
	c.server.mu.Unlock()
	if truncated {
		return &fakeDownload{r: strings.NewReader(string(data[:len(data)/2])), truncated: true}, nil
	}
	return &fakeDownload{r: strings.NewReader(string(data))}, nil
}

// fakeDownload answers Close like a server: 426 when the transfer did not
// complete, either because the reader stopped early or the data was cut
type fakeDownload struct {
	r         *strings.Reader
	truncated bool
}

func (d *fakeDownload) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *fakeDownload) Close() error {
	if d.truncated || d.r.Len() > 0 {
		return &textproto.Error{Code: StatusTransferAborted, Msg: "Transfer aborted"}
	}
	return nil
}

func (c *fakeClient) OpenWrite(p string) (io.WriteCloser, error) {
	if err := c.begin("STOR"); err != nil {
		return nil, err
	}
	s := c.server
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirs[path.Dir(p)] {
		return nil, notFound(path.Dir(p))
	}
	s.files[p] = nil
	s.modified[p] = time.Now()
	return &fakeUpload{server: s, path: p}, nil
}

func (c *fakeClient) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.open--
	return nil
}

type fakeUpload struct {
	server *fakeServer
	path   string
	closed bool
}

func (u *fakeUpload) Write(p []byte) (int, error) {
	u.server.mu.Lock()
	defer u.server.mu.Unlock()
	u.server.files[u.path] = append(u.server.files[u.path], p...)
	return len(p), nil
}

func (u *fakeUpload) Close() error {
	u.closed = true
	return nil
}

// newTestStorage wires a Storage to server with a short retry budget
func newTestStorage(server *fakeServer) *Storage {
	policy := RetryPolicy{Budget: 100 * time.Millisecond, Interval: 10 * time.Millisecond}
	return New(NewConnector(server, policy, logging.NewNullLogger()), Config{}, nil)
}

// logBuffer is a goroutine-safe bytes.Buffer for log assertions
type logBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
