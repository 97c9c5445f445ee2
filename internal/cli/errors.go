package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/sdejongh/ftpvault/pkg/models"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// ExitError is a command failure carrying the process exit code
type ExitError struct {
	Code int
	Err  error
	// Reported is set when the error was already written by a formatter
	Reported bool
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitWith wraps err with the exit code of its transfer status
func exitWith(err error, reported bool) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: models.StatusOf(err).ExitCode(), Err: err, Reported: reported}
}

// HandleError prints err to w unless it was already reported and returns
// the exit code for it. Usage errors and the like exit with 1.
func HandleError(err error, w io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(w, "Error: %s\n", storage.UserMessage(err))
		return 1
	}
	if !exitErr.Reported {
		fmt.Fprintf(w, "Error: %s\n", storage.UserMessage(exitErr.Err))
	}
	return exitErr.Code
}
