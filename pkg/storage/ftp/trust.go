package ftp

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"sync/atomic"
)

// TrustPolicy decides how the server certificate of an encrypted session is
// validated
type TrustPolicy struct {
	// AcceptAny skips certificate validation entirely
	AcceptAny bool
	// RootCAs replaces the system roots when non-nil
	RootCAs *x509.CertPool
}

// ParseTrustPolicy parses "verify" or "accept-any"
func ParseTrustPolicy(s string) (TrustPolicy, error) {
	switch s {
	case "verify", "":
		return TrustPolicy{}, nil
	case "accept-any":
		return TrustPolicy{AcceptAny: true}, nil
	default:
		return TrustPolicy{}, fmt.Errorf("unknown trust policy %q (use: verify, accept-any)", s)
	}
}

// sessionTrust is the trust decision of one logical connection. The first
// handshake (the control channel) is validated against the policy; once it
// is accepted, every later handshake on the same session (data channels) is
// accepted without another check.
type sessionTrust struct {
	policy   TrustPolicy
	host     string
	accepted atomic.Bool
}

func (t *sessionTrust) verify(cs tls.ConnectionState) error {
	if t.accepted.Load() {
		return nil
	}

	if !t.policy.AcceptAny {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("server presented no certificate")
		}
		opts := x509.VerifyOptions{
			DNSName:       t.host,
			Roots:         t.policy.RootCAs,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(cert)
		}
		if _, err := cs.PeerCertificates[0].Verify(opts); err != nil {
			return fmt.Errorf("server certificate rejected: %w", err)
		}
	}

	t.accepted.Store(true)
	return nil
}

// newSessionTLS returns the TLS configuration shared by the control channel
// and all data channels of one session. Verification runs in
// VerifyConnection so the accept-once decision stays with the session.
func newSessionTLS(endpoint Endpoint) *tls.Config {
	trust := &sessionTrust{policy: endpoint.Trust, host: endpoint.Host}
	return &tls.Config{
		ServerName:         endpoint.Host,
		InsecureSkipVerify: true, // replaced by VerifyConnection
		VerifyConnection:   trust.verify,
		// many servers require the data channel to resume the control session
		ClientSessionCache: tls.NewLRUClientSessionCache(0),
		MinVersion:         tls.VersionTLS12,
	}
}
