// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package chainverify produces system trust verdicts for server certificate
// chains. It wraps crypto/x509 path building behind a small interface so
// that policy evaluation can treat the platform verifier as a pluggable,
// two-valued oracle: the verdict is a bool, never an error, and the
// inspected chain is reported even on failure so pinning can still be
// attempted against an untrusted chain.
package chainverify

import (
	"crypto/x509"
	"time"
)

// MaxChainCertificates caps the number of certificates accepted in a single
// presented chain. Longer chains are rejected outright.
const MaxChainCertificates = 64

// Result reports the outcome of a single chain verification.
type Result struct {
	// Trusted is true when a path was built from the leaf to a trust
	// anchor, every signature and validity period checked out, and the
	// requested server name (if any) matched the leaf.
	Trusted bool

	// Chain holds the certificates actually inspected, leaf first. When
	// Trusted, it is the verified path including the anchor. When not
	// Trusted, it is the presented chain as parsed, so callers can still
	// match pins against it. Nil when the leaf itself did not parse.
	Chain []*x509.Certificate
}

// Verifier produces a system trust verdict for a server chain.
//
// rawChain is the DER chain as presented in the handshake, leaf first.
// serverName enables hostname verification when non-empty. anchors are
// added to the trust store for this call only.
type Verifier interface {
	Verify(rawChain [][]byte, serverName string, anchors []*x509.Certificate) Result
}

// Config configures a SystemVerifier.
type Config struct {
	// Roots overrides the trust store. Nil means the platform store.
	Roots *x509.CertPool

	// Now overrides the verification time. Nil means time.Now.
	Now func() time.Time
}

// SystemVerifier verifies chains against the platform trust store (or a
// configured root pool) using crypto/x509.
type SystemVerifier struct {
	roots *x509.CertPool
	now   func() time.Time
}

// New returns a SystemVerifier. A nil cfg uses the platform trust store and
// the current time.
func New(cfg *Config) *SystemVerifier {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SystemVerifier{roots: cfg.Roots, now: cfg.Now}
}

// Verify implements Verifier.
func (v *SystemVerifier) Verify(rawChain [][]byte, serverName string, anchors []*x509.Certificate) Result {
	if len(rawChain) == 0 || len(rawChain) > MaxChainCertificates {
		return Result{}
	}

	leaf, err := x509.ParseCertificate(rawChain[0])
	if err != nil {
		return Result{}
	}

	presented := []*x509.Certificate{leaf}
	intermediates := x509.NewCertPool()
	for _, der := range rawChain[1:] {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			// TLS stacks tolerate junk beyond the leaf; so do we.
			continue
		}
		intermediates.AddCert(cert)
		presented = append(presented, cert)
	}

	opts := x509.VerifyOptions{
		Roots:         v.rootPool(anchors),
		Intermediates: intermediates,
		DNSName:       serverName,
	}
	if v.now != nil {
		opts.CurrentTime = v.now()
	}

	chains, err := leaf.Verify(opts)
	if err != nil || len(chains) == 0 {
		return Result{Chain: presented}
	}
	return Result{Trusted: true, Chain: chains[0]}
}

// rootPool resolves the trust store for one verification. Anchors extend a
// copy of the configured or platform pool; the originals are never mutated.
func (v *SystemVerifier) rootPool(anchors []*x509.Certificate) *x509.CertPool {
	if len(anchors) == 0 {
		return v.roots
	}

	var pool *x509.CertPool
	if v.roots != nil {
		pool = v.roots.Clone()
	} else if sys, err := x509.SystemCertPool(); err == nil {
		pool = sys
	} else {
		pool = x509.NewCertPool()
	}

	for _, anchor := range anchors {
		if anchor != nil {
			pool.AddCert(anchor)
		}
	}
	return pool
}
