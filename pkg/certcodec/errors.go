// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package certcodec decodes X.509 certificate material from the encodings
// commonly found in certificate bundles: raw DER, PEM, and PKCS#7
// (SignedData) envelopes. It also provides direct access to the
// SubjectPublicKeyInfo structure of a DER certificate without a full parse,
// which is the comparison unit for public key pinning.
package certcodec

import "errors"

var (
	// ErrNoCertificates indicates the input contained no certificate payload.
	ErrNoCertificates = errors.New("certcodec: no certificates found")

	// ErrParseCertificate indicates a certificate payload did not parse as DER X.509.
	ErrParseCertificate = errors.New("certcodec: failed to parse certificate")

	// ErrParsePKCS7 indicates a PKCS#7 envelope could not be decoded.
	ErrParsePKCS7 = errors.New("certcodec: failed to parse PKCS7 envelope")

	// ErrMalformedCertificate indicates the DER structure of a certificate
	// could not be walked to the field of interest.
	ErrMalformedCertificate = errors.New("certcodec: malformed certificate structure")
)
