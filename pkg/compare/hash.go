package compare

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
)

// HashComparator compares files using SHA-256 hash
type HashComparator struct {
	bufferSize    int
	bufferPool    *sync.Pool
	readerWrapper ReaderWrapper // Optional reader wrapper (e.g., for rate limiting)
}

// NewHashComparator creates a new hash-based comparator
func NewHashComparator(bufferSize int) *HashComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &HashComparator{
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Compare compares two files using SHA-256 hash. Both sides are read in
// parallel, each on its own stream.
func (c *HashComparator) Compare(ctx context.Context, source, dest Target) (*Comparison, error) {
	var sourceHash, destHash string
	var sourceHashErr, destHashErr error
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		sourceHash, sourceHashErr = c.computeHash(ctx, source)
	}()
	go func() {
		defer wg.Done()
		destHash, destHashErr = c.computeHash(ctx, dest)
	}()
	wg.Wait()

	// Check for errors
	if sourceHashErr != nil {
		cmp := newComparison(source, dest, Error, "failed to compute source hash")
		cmp.Error = sourceHashErr
		return cmp, sourceHashErr
	}
	if destHashErr != nil {
		cmp := newComparison(source, dest, Error, "failed to compute destination hash")
		cmp.Error = destHashErr
		return cmp, destHashErr
	}

	if sourceHash != destHash {
		return newComparison(source, dest, Different, "file hashes differ"), nil
	}
	return newComparison(source, dest, Same, "file hashes match"), nil
}

// computeHash computes SHA-256 hash of a file using streaming
func (c *HashComparator) computeHash(ctx context.Context, target Target) (string, error) {
	rc, err := target.Storage.OpenRead(ctx, target.Conn)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			rc.Close()
		}
	}()

	var reader io.Reader = rc
	// Apply reader wrapper if set (e.g., for rate limiting)
	if c.readerWrapper != nil {
		reader = c.readerWrapper(reader)
	}

	hasher := sha256.New()

	// Get buffer from pool
	bufPtr := c.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer c.bufferPool.Put(bufPtr)

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	// a remote stream reports a truncated download on close
	closed = true
	if err := rc.Close(); err != nil {
		return "", fmt.Errorf("failed to finish reading file: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// SetReaderWrapper sets a function to wrap readers (e.g., for rate limiting)
func (c *HashComparator) SetReaderWrapper(wrapper ReaderWrapper) {
	c.readerWrapper = wrapper
}

// Name returns the comparator name
func (c *HashComparator) Name() string {
	return "hash"
}
