// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectPublicKeyInfo_MatchesX509(t *testing.T) {
	cert, _ := generateTestCert(t)

	spki, err := SubjectPublicKeyInfo(cert.Raw)
	require.NoError(t, err)
	assert.Equal(t, cert.RawSubjectPublicKeyInfo, spki)
}

func TestSubjectPublicKeyInfo_DistinctKeysDiffer(t *testing.T) {
	cert1, _ := generateTestCert(t)
	cert2, _ := generateTestCert(t)

	spki1, err := SubjectPublicKeyInfo(cert1.Raw)
	require.NoError(t, err)
	spki2, err := SubjectPublicKeyInfo(cert2.Raw)
	require.NoError(t, err)

	assert.NotEqual(t, spki1, spki2)
}

func TestSubjectPublicKeyInfo_Garbage(t *testing.T) {
	_, err := SubjectPublicKeyInfo([]byte("not DER"))
	assert.ErrorIs(t, err, ErrMalformedCertificate)
}

func TestSubjectPublicKeyInfo_Truncated(t *testing.T) {
	cert, _ := generateTestCert(t)

	_, err := SubjectPublicKeyInfo(cert.Raw[:40])
	assert.ErrorIs(t, err, ErrMalformedCertificate)
}

func TestSubjectPublicKeyInfo_TrailingData(t *testing.T) {
	cert, _ := generateTestCert(t)

	_, err := SubjectPublicKeyInfo(append(append([]byte{}, cert.Raw...), 0x00))
	assert.ErrorIs(t, err, ErrMalformedCertificate)
}

func TestSPKIPinSHA256(t *testing.T) {
	cert, _ := generateTestCert(t)

	pin := SPKIPinSHA256(cert)

	// SHA-256 = 32 bytes = 64 hex chars.
	assert.Len(t, pin, 64)

	expected := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	assert.Equal(t, hex.EncodeToString(expected[:]), pin)
}

func TestFingerprintSHA256(t *testing.T) {
	cert, _ := generateTestCert(t)

	fp := FingerprintSHA256(cert.Raw)

	expected := sha256.Sum256(cert.Raw)
	assert.Equal(t, hex.EncodeToString(expected[:]), fp)
}
