package ratelimit

import (
	"context"
	"io"
)

// Reader throttles an io.Reader
type Reader struct {
	ctx     context.Context
	r       io.Reader
	limiter *Limiter
}

// NewReader wraps r. A nil limiter returns r unchanged.
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &Reader{ctx: ctx, r: r, limiter: limiter}
}

// Read reserves tokens for len(p) bytes, reads, and refunds what was not used
func (r *Reader) Read(p []byte) (int, error) {
	want := r.limiter.chunk(len(p))
	if err := r.limiter.WaitN(r.ctx, want); err != nil {
		return 0, err
	}
	n, err := r.r.Read(p[:want])
	r.limiter.refund(want - n)
	return n, err
}

// ReadCloser throttles an io.ReadCloser
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps rc. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &ReadCloser{
		Reader: Reader{ctx: ctx, r: rc, limiter: limiter},
		closer: rc,
	}
}

// Close closes the wrapped stream
func (rc *ReadCloser) Close() error {
	return rc.closer.Close()
}

// Writer throttles an io.Writer
type Writer struct {
	ctx     context.Context
	w       io.Writer
	limiter *Limiter
}

// NewWriter wraps w. A nil limiter returns w unchanged.
func NewWriter(ctx context.Context, w io.Writer, limiter *Limiter) io.Writer {
	if limiter == nil {
		return w
	}
	return &Writer{ctx: ctx, w: w, limiter: limiter}
}

// Write passes p through in bucket-sized chunks
func (w *Writer) Write(p []byte) (int, error) {
	var written int
	for written < len(p) {
		chunk := w.limiter.chunk(len(p) - written)
		if err := w.limiter.WaitN(w.ctx, chunk); err != nil {
			return written, err
		}
		n, err := w.w.Write(p[written : written+chunk])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
