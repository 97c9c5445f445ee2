package ftp

import (
	"errors"
	"net/textproto"

	"github.com/sdejongh/ftpvault/pkg/storage"
)

// StatusFileUnavailable is the "no such file" reply (RFC 959)
const StatusFileUnavailable = 550

// Replies a server sends when a data transfer is cut short
const (
	StatusTransferAborted = 426
	StatusLocalError      = 451
)

// translateError maps a collaborator error onto the storage taxonomy.
// Errors that already carry a kind pass through unchanged.
func translateError(op, location string, err error) error {
	if err == nil {
		return nil
	}

	var se *storage.Error
	if errors.As(err, &se) {
		return err
	}

	var reply *textproto.Error
	if errors.As(err, &reply) {
		kind := storage.KindRemoteCommand
		if reply.Code == StatusFileUnavailable {
			kind = storage.KindNotFound
		}
		return &storage.Error{
			Kind: kind,
			Op:   op,
			Path: location,
			Code: reply.Code,
			Msg:  reply.Msg,
			Err:  err,
		}
	}

	return storage.NewError(storage.KindConnection, op, location, err)
}

// isNotFound reports whether err is a "no such file" reply
func isNotFound(err error) bool {
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code == StatusFileUnavailable
}

// isTransferAborted reports whether err is the reply to a transfer closed
// before the server finished sending
func isTransferAborted(err error) bool {
	var reply *textproto.Error
	if !errors.As(err, &reply) {
		return false
	}
	return reply.Code == StatusTransferAborted || reply.Code == StatusLocalError
}
