// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcodec

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// SubjectPublicKeyInfo returns the raw DER SubjectPublicKeyInfo element of a
// DER-encoded certificate, including its tag and length bytes. The result is
// byte-identical to x509.Certificate.RawSubjectPublicKeyInfo and aliases der.
//
// Only the TBSCertificate fields preceding the SPKI are walked, so
// certificates the full x509 parser rejects (unsupported extensions, policy
// violations) still yield their public key material.
func SubjectPublicKeyInfo(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)

	var cert cryptobyte.String
	if !input.ReadASN1(&cert, cryptobyte_asn1.SEQUENCE) || !input.Empty() {
		return nil, ErrMalformedCertificate
	}

	var tbs cryptobyte.String
	if !cert.ReadASN1(&tbs, cryptobyte_asn1.SEQUENCE) {
		return nil, ErrMalformedCertificate
	}

	// version [0] EXPLICIT, absent in v1 certificates
	if !tbs.SkipOptionalASN1(cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) {
		return nil, ErrMalformedCertificate
	}
	if !tbs.SkipASN1(cryptobyte_asn1.INTEGER) || // serialNumber
		!tbs.SkipASN1(cryptobyte_asn1.SEQUENCE) || // signature algorithm
		!tbs.SkipASN1(cryptobyte_asn1.SEQUENCE) || // issuer
		!tbs.SkipASN1(cryptobyte_asn1.SEQUENCE) || // validity
		!tbs.SkipASN1(cryptobyte_asn1.SEQUENCE) { // subject
		return nil, ErrMalformedCertificate
	}

	var spki cryptobyte.String
	if !tbs.ReadASN1Element(&spki, cryptobyte_asn1.SEQUENCE) {
		return nil, ErrMalformedCertificate
	}
	return []byte(spki), nil
}

// SPKIPinSHA256 computes the SHA-256 hash of a certificate's
// SubjectPublicKeyInfo. Returns the hex-encoded hash string.
func SPKIPinSHA256(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return hex.EncodeToString(hash[:])
}

// FingerprintSHA256 computes the SHA-256 digest of der, hex encoded.
func FingerprintSHA256(der []byte) string {
	hash := sha256.Sum256(der)
	return hex.EncodeToString(hash[:])
}
