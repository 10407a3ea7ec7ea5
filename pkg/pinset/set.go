// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package pinset builds immutable comparison sets of pinned certificate
// material. A set is constructed once from DER-encoded certificates and
// thereafter answers byte-exact membership queries against either whole
// certificates or their SubjectPublicKeyInfo structures.
package pinset

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
)

var (
	// ErrInvalidPin indicates a pinned blob did not parse as an X.509 certificate.
	ErrInvalidPin = errors.New("pinset: pinned certificate does not parse")

	// ErrUnknownMaterial indicates an unrecognized Material value.
	ErrUnknownMaterial = errors.New("pinset: unknown pin material")
)

// Material selects which certificate material a Set compares.
type Material int

const (
	// MaterialCertificate compares complete DER-encoded certificates.
	MaterialCertificate Material = iota

	// MaterialPublicKey compares DER-encoded SubjectPublicKeyInfo structures,
	// so pins survive certificate renewal that keeps the same key pair.
	MaterialPublicKey
)

// String returns the material name used in logs and CLI output.
func (m Material) String() string {
	switch m {
	case MaterialCertificate:
		return "certificate"
	case MaterialPublicKey:
		return "public-key"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Set is an immutable comparison set of pinned certificate material. All
// methods are safe for concurrent use.
type Set struct {
	material Material
	members  map[string]struct{}
	anchors  []*x509.Certificate
}

// New builds a Set from DER-encoded certificates. Duplicate blobs are
// dropped; a blob that does not parse fails construction. An empty or nil
// pinned slice yields an empty set.
func New(material Material, pinned [][]byte) (*Set, error) {
	if material != MaterialCertificate && material != MaterialPublicKey {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMaterial, int(material))
	}

	members := make(map[string]struct{}, len(pinned))
	anchors := make([]*x509.Certificate, 0, len(pinned))
	seen := make(map[string]struct{}, len(pinned))

	for i, der := range pinned {
		if _, dup := seen[string(der)]; dup {
			continue
		}
		seen[string(der)] = struct{}{}

		// Private copy: the set must not observe later mutation of the
		// caller's blobs.
		blob := append([]byte(nil), der...)
		cert, err := certcodec.ParseCertificate(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: blob %d: %w", ErrInvalidPin, i, err)
		}
		anchors = append(anchors, cert)

		if material == MaterialPublicKey {
			members[string(cert.RawSubjectPublicKeyInfo)] = struct{}{}
		} else {
			members[string(cert.Raw)] = struct{}{}
		}
	}

	return &Set{material: material, members: members, anchors: anchors}, nil
}

// Material returns the comparison material of the set.
func (s *Set) Material() Material {
	return s.material
}

// Len returns the number of distinct comparison entries in the set. Two
// pinned certificates sharing a public key count once under
// MaterialPublicKey.
func (s *Set) Len() int {
	return len(s.members)
}

// Contains reports whether material is a member of the set, compared by
// exact byte equality.
func (s *Set) Contains(material []byte) bool {
	_, ok := s.members[string(material)]
	return ok
}

// ContainsCertificate reports whether cert matches the set under the set's
// material: its raw DER for MaterialCertificate, its SubjectPublicKeyInfo
// for MaterialPublicKey.
func (s *Set) ContainsCertificate(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	if s.material == MaterialPublicKey {
		return s.Contains(cert.RawSubjectPublicKeyInfo)
	}
	return s.Contains(cert.Raw)
}

// Anchors returns the parsed pinned certificates, deduplicated by DER. The
// returned slice is a copy; certificate pointers are shared.
func (s *Set) Anchors() []*x509.Certificate {
	return append([]*x509.Certificate(nil), s.anchors...)
}
