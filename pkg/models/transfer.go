package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransferOperation describes a single file copy between two locations
type TransferOperation struct {
	ID             string
	Source         string
	Dest           string
	Transacted     bool  // write to a temporary file and rename on commit
	Verify         bool  // compare size and SHA-256 of both sides after commit
	BandwidthLimit int64 // bytes per second, 0 = unlimited
	BufferSize     int
	CreatedAt      time.Time
}

// NewTransferOperation creates an operation with a fresh ID
func NewTransferOperation(source, dest string, transacted bool) *TransferOperation {
	return &TransferOperation{
		ID:         uuid.New().String(),
		Source:     source,
		Dest:       dest,
		Transacted: transacted,
		BufferSize: 65536,
		CreatedAt:  time.Now(),
	}
}

// Validate checks if the operation configuration is valid
func (op *TransferOperation) Validate() error {
	if op.Source == "" {
		return &ValidationError{Field: "Source", Message: "source location is required"}
	}
	if op.Dest == "" {
		return &ValidationError{Field: "Dest", Message: "destination location is required"}
	}
	if op.Source == op.Dest {
		return &ValidationError{Field: "Dest", Message: "destination must differ from source"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	if op.BandwidthLimit < 0 {
		return &ValidationError{Field: "BandwidthLimit", Message: "bandwidth limit cannot be negative"}
	}
	return nil
}

// TransferReport represents the result of a transfer
type TransferReport struct {
	OperationID string `json:"operation_id"`
	Source      string `json:"source"`
	Dest        string `json:"dest"`
	Transacted  bool   `json:"transacted"`
	Verified    bool   `json:"verified"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration_ns"`

	BytesTransferred int64 `json:"bytes_transferred"`
	AverageSpeed     int64 `json:"average_speed"` // bytes per second

	Status TransferStatus `json:"status"`
	Error  string         `json:"error,omitempty"`
}

// NewTransferReport starts a report for op
func NewTransferReport(op *TransferOperation) *TransferReport {
	return &TransferReport{
		OperationID: op.ID,
		Source:      op.Source,
		Dest:        op.Dest,
		Transacted:  op.Transacted,
		StartTime:   time.Now(),
	}
}

// Finish stamps the end time and derives the status from err
func (r *TransferReport) Finish(err error) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	if r.Duration > 0 {
		r.AverageSpeed = int64(float64(r.BytesTransferred) / r.Duration.Seconds())
	}

	r.Status = StatusOf(err)
	if err != nil {
		r.Error = err.Error()
	}
}

// StatusOf maps the error of a finished operation to a status
func StatusOf(err error) TransferStatus {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusFailed
	}
}

// TransferStatus represents the overall result
type TransferStatus string

const (
	// StatusSuccess indicates the transfer completed
	StatusSuccess TransferStatus = "success"
	// StatusFailed indicates the transfer failed
	StatusFailed TransferStatus = "failed"
	// StatusCancelled indicates the transfer was cancelled
	StatusCancelled TransferStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the transfer status
func (s TransferStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}
