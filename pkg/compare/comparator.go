// Package compare checks whether two stored files hold the same content.
// The transfer package uses it to verify a copy once it was committed.
package compare

import (
	"context"
	"io"

	"github.com/sdejongh/ftpvault/pkg/storage"
)

// Result represents the outcome of comparing two files
type Result string

const (
	// Same indicates files are identical
	Same Result = "same"
	// Different indicates files differ
	Different Result = "different"
	// SourceMissing indicates the source file could not be found
	SourceMissing Result = "source_missing"
	// DestMissing indicates the destination file could not be found
	DestMissing Result = "dest_missing"
	// Error indicates comparison failed
	Error Result = "error"
)

// Target is one side of a comparison: a backend and the file on it
type Target struct {
	Storage storage.FileStorage
	Conn    storage.IOConnection
}

// Location returns the path of the target
func (t Target) Location() string {
	return t.Conn.Path
}

// Comparison holds the result of comparing two files
type Comparison struct {
	SourcePath string
	DestPath   string
	Result     Result
	Reason     string
	Error      error
}

func newComparison(source, dest Target, result Result, reason string) *Comparison {
	return &Comparison{
		SourcePath: source.Location(),
		DestPath:   dest.Location(),
		Result:     result,
		Reason:     reason,
	}
}

// ReaderWrapper wraps the readers a comparator opens, e.g. to apply a
// bandwidth limit
type ReaderWrapper func(io.Reader) io.Reader

// Comparator defines the interface for file comparison algorithms
type Comparator interface {
	// Compare compares two files and returns the result
	Compare(ctx context.Context, source, dest Target) (*Comparison, error)

	// Name returns the name of the comparison method
	Name() string
}
