// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package tlsapin

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"crypto/x509"
)

// selectorData extracts the certificate material a selector value refers to.
var selectorData = map[uint8]func(*x509.Certificate) []byte{
	SelectorCertificate: func(c *x509.Certificate) []byte { return c.Raw },
	SelectorPublicKey:   func(c *x509.Certificate) []byte { return c.RawSubjectPublicKeyInfo },
}

// matchingTransforms maps a matching type onto its digest (or identity).
var matchingTransforms = map[uint8]func([]byte) []byte{
	MatchExact:  func(d []byte) []byte { return d },
	MatchSHA256: func(d []byte) []byte { h := sha256.Sum256(d); return h[:] },
	MatchSHA512: func(d []byte) []byte { h := sha512.Sum512(d); return h[:] },
}

// AssociationData computes the certificate association data for cert under
// the given selector and matching type, as published in a TLSA record.
func AssociationData(cert *x509.Certificate, selector, matchingType uint8) ([]byte, error) {
	if cert == nil {
		return nil, ErrInvalidCertificate
	}
	sel, ok := selectorData[selector]
	if !ok {
		return nil, ErrUnsupportedField
	}
	transform, ok := matchingTransforms[matchingType]
	if !ok {
		return nil, ErrUnsupportedField
	}
	return transform(sel(cert)), nil
}

// RecordFor builds the TLSA record publishing cert under the given usage,
// selector, and matching type.
func RecordFor(cert *x509.Certificate, usage, selector, matchingType uint8) (*Record, error) {
	data, err := AssociationData(cert, selector, matchingType)
	if err != nil {
		return nil, err
	}
	return &Record{
		Usage:        usage,
		Selector:     selector,
		MatchingType: matchingType,
		CertData:     data,
	}, nil
}

// MatchCertificate reports whether cert satisfies record. Unknown selector
// or matching type values never match. Comparison is constant time.
func MatchCertificate(cert *x509.Certificate, record *Record) bool {
	if cert == nil || record == nil {
		return false
	}
	computed, err := AssociationData(cert, record.Selector, record.MatchingType)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(computed, record.CertData) == 1
}

// MatchChain reports whether any certificate in certs satisfies any record.
// A single match suffices, at any chain position.
func MatchChain(certs []*x509.Certificate, records []*Record) bool {
	for _, cert := range certs {
		for _, record := range records {
			if MatchCertificate(cert, record) {
				return true
			}
		}
	}
	return false
}
