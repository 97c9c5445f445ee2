package ftp

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/sdejongh/ftpvault/pkg/logging"
	"github.com/sdejongh/ftpvault/pkg/storage"
)

// RetryPolicy controls how the connector reacts to refused connections
type RetryPolicy struct {
	// Budget is the total time after which a retryable failure is surfaced
	Budget time.Duration
	// Interval is the minimum spacing between the start of two attempts
	Interval time.Duration
	// RetryIf selects the retryable errors, IsConnectionRefused when nil
	RetryIf func(err error) bool
}

// DefaultRetryPolicy retries refused connections once per second for 30 seconds
var DefaultRetryPolicy = RetryPolicy{
	Budget:   30 * time.Second,
	Interval: time.Second,
	RetryIf:  IsConnectionRefused,
}

func (p RetryPolicy) retryable(err error) bool {
	if p.RetryIf == nil {
		return IsConnectionRefused(err)
	}
	return p.RetryIf(err)
}

// IsConnectionRefused reports whether err means that nothing listens at the
// dialed address. Authentication, TLS and DNS failures are not refusals.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// Connector opens sessions, retrying refused connections within the
// policy's time budget. It holds no session state of its own.
type Connector struct {
	dialer Dialer
	policy RetryPolicy
	logger logging.Logger
}

// NewConnector creates a connector. A nil logger disables logging.
func NewConnector(dialer Dialer, policy RetryPolicy, logger logging.Logger) *Connector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if policy.Interval < 0 {
		policy.Interval = 0
	}
	return &Connector{
		dialer: dialer,
		policy: policy,
		logger: logger,
	}
}

// Connect returns a connected client for endpoint.
//
// A refused connection is retried no more than once per Interval until
// Budget has elapsed, then returned as storage.KindTransientConnection.
// Every other failure is returned at once as storage.KindConnection.
func (c *Connector) Connect(ctx context.Context, endpoint Endpoint) (Client, error) {
	addr := endpoint.Address()
	log := c.logger.WithFields(logging.Fields{"address": addr, "encryption": endpoint.Encryption.String()})

	start := time.Now()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, storage.NewError(storage.KindConnection, "connect", addr, err)
		}

		attemptStart := time.Now()
		client, err := c.dialer.Dial(ctx, endpoint)
		if err == nil {
			if attempt > 1 {
				log.Info(ctx, "connected after retry", logging.Fields{"attempts": attempt})
			}
			return client, nil
		}

		if !c.policy.retryable(err) {
			log.Error(ctx, "connect failed", err, logging.Fields{"attempts": attempt})
			return nil, storage.NewError(storage.KindConnection, "connect", addr, err)
		}

		if time.Since(start) > c.policy.Budget {
			log.Error(ctx, "connection refused, retry budget exhausted", err, logging.Fields{
				"attempts": attempt,
				"elapsed":  time.Since(start).String(),
			})
			return nil, storage.NewError(storage.KindTransientConnection, "connect", addr, err)
		}

		log.Warn(ctx, "connection refused, retrying", logging.Fields{"attempt": attempt})

		if wait := c.policy.Interval - time.Since(attemptStart); wait > 0 {
			if err := sleepContext(ctx, wait); err != nil {
				return nil, storage.NewError(storage.KindConnection, "connect", addr, err)
			}
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
