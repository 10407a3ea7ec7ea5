// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package tlsapin provisions certificate pins from DANE TLSA records
// (RFC 6698). Instead of shipping pinned certificates inside the
// application, an operator publishes them in DNS under
// "_<port>._tcp.<host>" and clients pin whatever the DNSSEC-validated
// records carry. Records that select the full certificate with exact
// matching hold complete DER certificates and convert directly into trust
// policy pins; hashed records are matched against a served chain instead.
package tlsapin

import "errors"

// DNS lookup errors.
var (
	// ErrResolverConfig indicates the resolver configuration is unusable.
	ErrResolverConfig = errors.New("tlsapin: invalid resolver configuration")

	// ErrLookupFailed indicates the TLSA query failed.
	ErrLookupFailed = errors.New("tlsapin: TLSA lookup failed")

	// ErrUnauthenticated indicates the DNS response lacked the
	// Authenticated Data flag while DNSSEC validation was required.
	ErrUnauthenticated = errors.New("tlsapin: response not DNSSEC authenticated")

	// ErrNoRecords indicates the queried name published no TLSA records.
	ErrNoRecords = errors.New("tlsapin: no TLSA records found")
)

// Input validation errors.
var (
	// ErrInvalidHostname indicates an empty or malformed hostname.
	ErrInvalidHostname = errors.New("tlsapin: invalid hostname")

	// ErrInvalidPort indicates port zero.
	ErrInvalidPort = errors.New("tlsapin: invalid port")

	// ErrInvalidCertificate indicates a nil certificate was provided.
	ErrInvalidCertificate = errors.New("tlsapin: invalid certificate")

	// ErrUnsupportedField indicates a TLSA selector or matching type value
	// outside RFC 6698.
	ErrUnsupportedField = errors.New("tlsapin: unsupported TLSA field value")
)
