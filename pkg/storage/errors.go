package storage

import (
	"errors"
	"fmt"
)

// ErrorKind tags a storage failure so callers can branch on it
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors that did not come from a backend
	KindUnknown ErrorKind = iota
	// KindNotFound means the remote server reported "no such file"
	KindNotFound
	// KindRemoteCommand means the server rejected a command
	KindRemoteCommand
	// KindTransientConnection means the endpoint kept refusing connections until the retry budget ran out
	KindTransientConnection
	// KindConnection means a session could not be established (DNS, TLS, auth, ...)
	KindConnection
	// KindLocalIO means a local file or stream operation failed
	KindLocalIO
)

// Sentinels matched by errors.Is against any *Error of the same kind
var (
	ErrNotFound            = errors.New("file does not exist")
	ErrRemoteCommand       = errors.New("remote command failed")
	ErrTransientConnection = errors.New("could not reach server")
	ErrConnection          = errors.New("connection failed")
	ErrLocalIO             = errors.New("local I/O error")
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindRemoteCommand:
		return "remote-command"
	case KindTransientConnection:
		return "transient-connection"
	case KindConnection:
		return "connection"
	case KindLocalIO:
		return "local-io"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindRemoteCommand:
		return ErrRemoteCommand
	case KindTransientConnection:
		return ErrTransientConnection
	case KindConnection:
		return ErrConnection
	case KindLocalIO:
		return ErrLocalIO
	default:
		return nil
	}
}

// Error is the typed failure returned by every backend operation
type Error struct {
	Kind ErrorKind
	// Op is the storage operation, e.g. "list" or "commit"
	Op string
	// Path is the location the operation was addressing
	Path string
	// Code and Msg carry the remote status, zero for non-remote failures
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	kind := "failed"
	if s := e.Kind.sentinel(); s != nil {
		kind = s.Error()
	}
	switch {
	case e.Code != 0:
		msg += fmt.Sprintf(": %s (status %d: %s)", kind, e.Code, e.Msg)
	case e.Err != nil:
		msg += fmt.Sprintf(": %s: %v", kind, e.Err)
	default:
		msg += ": " + kind
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the same kind
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError builds a storage error of the given kind
func NewError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first storage error in err's chain
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// UserMessage renders err for display to an end user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *Error
	if !errors.As(err, &se) {
		return err.Error()
	}
	switch se.Kind {
	case KindNotFound:
		if se.Path == "" {
			return ErrNotFound.Error()
		}
		return fmt.Sprintf("file does not exist: %s", se.Path)
	case KindTransientConnection:
		return fmt.Sprintf("could not reach server: %v", se.Err)
	default:
		return se.Error()
	}
}
