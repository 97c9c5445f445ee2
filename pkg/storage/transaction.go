package storage

import (
	"errors"
	"fmt"
)

// ErrTransactionState is returned when a write transaction method is called
// in the wrong phase
var ErrTransactionState = errors.New("invalid write transaction state")

// TxPhase is the lifecycle phase of a write transaction
type TxPhase int

const (
	// TxIdle means no stream has been acquired yet
	TxIdle TxPhase = iota
	// TxOpen means the write stream is live
	TxOpen
	// TxCommitted means the write was published
	TxCommitted
	// TxAborted means the transaction was closed without commit
	TxAborted
)

// String returns the phase name
func (p TxPhase) String() string {
	switch p {
	case TxIdle:
		return "idle"
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// BeginOpen moves Idle -> Open
func (p *TxPhase) BeginOpen() error {
	if *p != TxIdle {
		return fmt.Errorf("%w: open called while %s", ErrTransactionState, *p)
	}
	*p = TxOpen
	return nil
}

// BeginCommit checks that a commit is allowed. The caller moves to
// TxCommitted or TxAborted once the commit finished.
func (p TxPhase) BeginCommit() error {
	if p != TxOpen {
		return fmt.Errorf("%w: commit called while %s", ErrTransactionState, p)
	}
	return nil
}

// Done reports whether the transaction reached a final phase
func (p TxPhase) Done() bool {
	return p == TxCommitted || p == TxAborted
}
