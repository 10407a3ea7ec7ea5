// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-trustpolicy/pkg/chainverify"
)

// startTLSServer serves TLS on a loopback port with the given certificate,
// driving the server side of every handshake. Returns the listen address.
func startTLSServer(t *testing.T, cert tls.Certificate) string {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				// The client's trust verdict decides the outcome; a
				// rejection surfaces here as a handshake alert.
				_ = c.(*tls.Conn).Handshake()
				_ = c.Close()
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestVerifyPeerCertificate(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")
	other, _ := newSelfSignedServerCert(t, "example.com")
	mock := &mockVerifier{result: chainverify.Result{Trusted: true, Chain: certsOf(cert)}}

	accepting, err := New(&Config{
		Mode:               PinningModeCertificate,
		PinnedCertificates: [][]byte{cert.Raw},
		Verifier:           mock,
	})
	require.NoError(t, err)
	assert.NoError(t, accepting.VerifyPeerCertificate("example.com")([][]byte{cert.Raw}, nil))

	rejecting, err := New(&Config{
		Mode:               PinningModeCertificate,
		PinnedCertificates: [][]byte{other.Raw},
		Verifier:           mock,
	})
	require.NoError(t, err)
	err = rejecting.VerifyPeerCertificate("example.com")([][]byte{cert.Raw}, nil)
	assert.ErrorIs(t, err, ErrServerTrustRejected)
}

func TestTLSConfig_Fields(t *testing.T) {
	cfg := Default().TLSConfig("example.com")

	assert.Equal(t, "example.com", cfg.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.NotNil(t, cfg.VerifyPeerCertificate)
}

func TestTLSConfig_HandshakeWithPinnedKey(t *testing.T) {
	pki := newTestPKI(t)
	leaf, key := pki.issueServerCert(t, "localhost", nil, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))

	addr := startTLSServer(t, tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
	})

	policy, err := New(&Config{
		Mode:               PinningModePublicKey,
		PinnedCertificates: [][]byte{leaf.Raw},
		Verifier:           pki.verifier(),
	})
	require.NoError(t, err)

	conn, err := tls.Dial("tcp", addr, policy.TLSConfig("localhost"))
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	// The captured handshake state evaluates the same way.
	trust := ServerTrustFromConnectionState(conn.ConnectionState())
	assert.True(t, policy.Evaluate(trust, "localhost"))
}

func TestTLSConfig_HandshakeRejectsUnpinnedKey(t *testing.T) {
	pki := newTestPKI(t)
	leaf, key := pki.issueServerCert(t, "localhost", nil, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	unrelated, _ := pki.issueServerCert(t, "localhost", nil, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))

	addr := startTLSServer(t, tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
	})

	policy, err := New(&Config{
		Mode:               PinningModePublicKey,
		PinnedCertificates: [][]byte{unrelated.Raw},
		Verifier:           pki.verifier(),
	})
	require.NoError(t, err)

	_, err = tls.Dial("tcp", addr, policy.TLSConfig("localhost"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "server trust rejected by policy")
}
