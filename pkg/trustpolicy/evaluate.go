// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
	"github.com/jeremyhahn/go-trustpolicy/pkg/chainverify"
)

// ServerTrust carries the certificate chain a server presented during a TLS
// handshake. RawChain is DER encoded, leaf first, exactly as received on
// the wire.
type ServerTrust struct {
	RawChain [][]byte
}

// NewServerTrust wraps a raw leaf-first DER chain, in the form handed to
// tls.Config.VerifyPeerCertificate.
func NewServerTrust(rawChain [][]byte) ServerTrust {
	return ServerTrust{RawChain: rawChain}
}

// ServerTrustFromConnectionState extracts the server chain from a completed
// handshake.
func ServerTrustFromConnectionState(cs tls.ConnectionState) ServerTrust {
	raw := make([][]byte, 0, len(cs.PeerCertificates))
	for _, cert := range cs.PeerCertificates {
		raw = append(raw, cert.Raw)
	}
	return ServerTrust{RawChain: raw}
}

// Evaluate reports whether the server chain in trust should be accepted for
// serverName under this policy.
//
// The decision procedure:
//
//  1. Hostname verification uses serverName unless the policy skips it or
//     serverName is empty. An empty serverName never rejects on its own.
//  2. In PinningModeCertificate the pinned certificates extend the trust
//     store for this evaluation.
//  3. A failed chain verdict rejects unless AllowInvalidCertificates.
//  4. With pinning enabled, at least one certificate in the validated chain
//     must match the pinned set: by whole-DER equality in
//     PinningModeCertificate, by SubjectPublicKeyInfo equality in
//     PinningModePublicKey. Any position in the chain counts.
//
// Evaluation is pure, holds no state between calls, and collapses every
// interior failure into reject. It is safe against adversarial input:
// malformed certificates and oversized chains reject rather than error.
func (p *Policy) Evaluate(trust ServerTrust, serverName string) bool {
	if len(trust.RawChain) == 0 || len(trust.RawChain) > chainverify.MaxChainCertificates {
		return false
	}

	name := serverName
	if p.skipServerName {
		name = ""
	}

	var anchors []*x509.Certificate
	if p.mode == PinningModeCertificate {
		anchors = p.pins.Anchors()
	}

	res := p.verifier.Verify(trust.RawChain, name, anchors)
	if !res.Trusted && !p.allowInvalid {
		return false
	}

	switch p.mode {
	case PinningModeNone:
		return true

	case PinningModeCertificate:
		for _, cert := range res.Chain {
			if p.pins.ContainsCertificate(cert) {
				return true
			}
		}
		return false

	case PinningModePublicKey:
		if len(res.Chain) > 0 {
			for _, cert := range res.Chain {
				if p.pins.ContainsCertificate(cert) {
					return true
				}
			}
			return false
		}
		// The verifier produced no chain at all. Lift public keys straight
		// from the presented DER so pinning can still rescue a connection
		// the embedder chose to tolerate.
		for _, der := range trust.RawChain {
			spki, err := certcodec.SubjectPublicKeyInfo(der)
			if err != nil {
				continue
			}
			if p.pins.Contains(spki) {
				return true
			}
		}
		return false

	default:
		return false
	}
}
