package ftp

import (
	"errors"
	"io"
)

// ownedReader is a download stream that owns its session: closing the
// stream closes the session
type ownedReader struct {
	rc       io.ReadCloser
	client   Client
	location string
	eof      bool
	closed   bool
}

func (r *ownedReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err == io.EOF {
		r.eof = true
	}
	if err != nil && err != io.EOF {
		return n, translateError("read", r.location, err)
	}
	return n, err
}

// Close ends the download. Stopping before EOF makes the server abort the
// transfer; that reply is expected then and not an error. After EOF the
// same reply means the data was truncated and is returned.
func (r *ownedReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	closeErr := r.rc.Close()
	if !r.eof && isTransferAborted(closeErr) {
		closeErr = nil
	}
	err := errors.Join(closeErr, r.client.Close())
	return translateError("close", r.location, err)
}

// remoteWriter is an upload stream. When client is non-nil the stream owns
// the session and closes it after the upload finished.
type remoteWriter struct {
	w        io.WriteCloser
	client   Client
	location string
	closed   bool
}

func (w *remoteWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, translateError("write", w.location, err)
	}
	return n, nil
}

func (w *remoteWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Close()
	if w.client != nil {
		err = errors.Join(err, w.client.Close())
	}
	return translateError("close", w.location, err)
}
