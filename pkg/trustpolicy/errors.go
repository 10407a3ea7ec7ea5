// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package trustpolicy decides whether the certificate chain a TLS server
// presents should be trusted. A Policy combines standard chain validation
// with optional certificate or public key pinning: pinning constrains trust
// to an embedder-shipped set of certificates or keys, which defeats
// man-in-the-middle attacks mounted with a mis-issued but otherwise valid
// certificate.
//
// Policies are immutable values. Construct one at startup, share it across
// connections, and derive adjusted copies with the With methods. Evaluation
// is a pure function of the policy and the presented chain; it returns a
// bare accept/reject and never panics on adversarial input.
//
// Applications pinning against public keys keep working across certificate
// renewals that retain the key pair, which is the recommended mode.
package trustpolicy

import "errors"

var (
	// ErrInvalidConfig indicates a policy configuration that violates an
	// invariant, such as an unknown pinning mode or an unparseable pinned
	// certificate.
	ErrInvalidConfig = errors.New("trustpolicy: invalid configuration")

	// ErrNoPinnedCertificates indicates a pinning mode other than
	// PinningModeNone was configured without any pinned certificates.
	ErrNoPinnedCertificates = errors.New("trustpolicy: pinning mode requires pinned certificates")

	// ErrServerTrustRejected is returned by TLS verification callbacks when
	// the policy rejects the server chain.
	ErrServerTrustRejected = errors.New("trustpolicy: server trust rejected by policy")
)
