package output

import (
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// Formatter defines the interface for command output.
// Implementations include human-readable and JSON formatters.
type Formatter interface {
	// Listing prints the entries of a directory
	Listing(location string, files []storage.FileDescription) error

	// Stat prints a single file description
	Stat(file *storage.FileDescription) error

	// Transfer prints the result of a copy
	Transfer(report *models.TransferReport) error

	// Done reports a completed operation without payload, e.g. a delete
	Done(action, location string) error

	// Error reports an error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter called name writing to w (stdout when nil)
func New(name string, w io.Writer) (Formatter, error) {
	if w == nil {
		w = os.Stdout
	}
	switch name {
	case "human", "":
		return NewHumanFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use: human, json)", name)
	}
}
