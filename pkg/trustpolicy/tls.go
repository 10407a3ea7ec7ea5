// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
)

// VerifyPeerCertificate returns a callback for tls.Config.VerifyPeerCertificate
// that enforces this policy against the handshake chain. The callback
// returns ErrServerTrustRejected when the policy rejects.
//
// Use together with InsecureSkipVerify: the callback replaces the default
// verification entirely, including the hostname check.
func (p *Policy) VerifyPeerCertificate(serverName string) func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if p.Evaluate(NewServerTrust(rawCerts), serverName) {
			return nil
		}
		return fmt.Errorf("%w: server %q", ErrServerTrustRejected, serverName)
	}
}

// TLSConfig returns a tls.Config that delegates server trust decisions to
// this policy. serverName is used both for SNI and for the policy's
// hostname verification.
func (p *Policy) TLSConfig(serverName string) *tls.Config {
	return &tls.Config{
		MinVersion:            tls.VersionTLS12,
		ServerName:            serverName,
		InsecureSkipVerify:    true, //nolint:gosec // Policy evaluation replaces stock verification
		VerifyPeerCertificate: p.VerifyPeerCertificate(serverName),
	}
}
