package ftp

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned returns a server certificate for host that is its own root
func selfSigned(t *testing.T, host string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: host},
		DNSNames:              []string{host},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestParseTrustPolicy(t *testing.T) {
	p, err := ParseTrustPolicy("verify")
	require.NoError(t, err)
	assert.False(t, p.AcceptAny)

	p, err = ParseTrustPolicy("accept-any")
	require.NoError(t, err)
	assert.True(t, p.AcceptAny)

	_, err = ParseTrustPolicy("sometimes")
	assert.Error(t, err)
}

func TestSessionTrust_AcceptAny(t *testing.T) {
	trust := &sessionTrust{policy: TrustPolicy{AcceptAny: true}, host: "example.com"}
	assert.NoError(t, trust.verify(tls.ConnectionState{}))
	assert.True(t, trust.accepted.Load())
}

func TestSessionTrust_VerifiesControlChannel(t *testing.T) {
	cert := selfSigned(t, "example.com")
	pool := x509.NewCertPool()
	pool.AddCert(cert)

	t.Run("TrustedRoot", func(t *testing.T) {
		trust := &sessionTrust{policy: TrustPolicy{RootCAs: pool}, host: "example.com"}
		assert.NoError(t, trust.verify(tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}))
	})

	t.Run("UnknownRoot", func(t *testing.T) {
		trust := &sessionTrust{policy: TrustPolicy{RootCAs: x509.NewCertPool()}, host: "example.com"}
		assert.Error(t, trust.verify(tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}))
		assert.False(t, trust.accepted.Load())
	})

	t.Run("WrongHost", func(t *testing.T) {
		trust := &sessionTrust{policy: TrustPolicy{RootCAs: pool}, host: "other.example.com"}
		assert.Error(t, trust.verify(tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}))
	})

	t.Run("NoCertificate", func(t *testing.T) {
		trust := &sessionTrust{policy: TrustPolicy{RootCAs: pool}, host: "example.com"}
		assert.Error(t, trust.verify(tls.ConnectionState{}))
	})
}

func TestSessionTrust_DataChannelsAcceptedAfterControl(t *testing.T) {
	cert := selfSigned(t, "example.com")
	pool := x509.NewCertPool()
	pool.AddCert(cert)
	trust := &sessionTrust{policy: TrustPolicy{RootCAs: pool}, host: "example.com"}

	require.NoError(t, trust.verify(tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}))
	// a data channel of the same session is not checked again
	assert.NoError(t, trust.verify(tls.ConnectionState{}))
}

func TestNewSessionTLS(t *testing.T) {
	endpoint := Endpoint{Host: "example.com", Encryption: EncryptionExplicit}
	cfg := newSessionTLS(endpoint)

	assert.Equal(t, "example.com", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.NotNil(t, cfg.VerifyConnection)
	assert.NotNil(t, cfg.ClientSessionCache)
	assert.Error(t, cfg.VerifyConnection(tls.ConnectionState{}), "verify policy rejects an empty chain")

	// sessions do not share trust decisions
	other := newSessionTLS(Endpoint{Host: "example.com", Trust: TrustPolicy{AcceptAny: true}})
	assert.NoError(t, other.VerifyConnection(tls.ConnectionState{}))
	assert.Error(t, cfg.VerifyConnection(tls.ConnectionState{}))
}
