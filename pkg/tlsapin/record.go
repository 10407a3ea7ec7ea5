// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package tlsapin

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
)

// Certificate usage values, RFC 6698 section 2.1.1.
const (
	// UsageCAConstraint (PKIX-TA) constrains which CA may issue for the
	// service; the chain must also pass PKIX validation.
	UsageCAConstraint uint8 = 0

	// UsageServiceCert (PKIX-EE) pins an end-entity certificate that must
	// also pass PKIX validation.
	UsageServiceCert uint8 = 1

	// UsageTrustAnchor (DANE-TA) publishes a trust anchor for the domain;
	// the record itself establishes trust.
	UsageTrustAnchor uint8 = 2

	// UsageEndEntity (DANE-EE) pins an end-entity certificate; the record
	// itself establishes trust.
	UsageEndEntity uint8 = 3
)

// Selector values, RFC 6698 section 2.1.2. They parallel the two pinning
// materials: the whole certificate or its SubjectPublicKeyInfo.
const (
	// SelectorCertificate selects the full DER-encoded certificate.
	SelectorCertificate uint8 = 0

	// SelectorPublicKey selects the DER-encoded SubjectPublicKeyInfo.
	SelectorPublicKey uint8 = 1
)

// Matching type values, RFC 6698 section 2.1.3.
const (
	// MatchExact carries the selected data verbatim.
	MatchExact uint8 = 0

	// MatchSHA256 carries a SHA-256 digest of the selected data.
	MatchSHA256 uint8 = 1

	// MatchSHA512 carries a SHA-512 digest of the selected data.
	MatchSHA512 uint8 = 2
)

var usageNames = map[uint8]string{
	UsageCAConstraint: "PKIX-TA",
	UsageServiceCert:  "PKIX-EE",
	UsageTrustAnchor:  "DANE-TA",
	UsageEndEntity:    "DANE-EE",
}

var selectorNames = map[uint8]string{
	SelectorCertificate: "certificate",
	SelectorPublicKey:   "public-key",
}

var matchingNames = map[uint8]string{
	MatchExact:  "exact",
	MatchSHA256: "sha256",
	MatchSHA512: "sha512",
}

// UsageName returns the RFC 6698 acronym for a certificate usage value.
func UsageName(usage uint8) string {
	if name, ok := usageNames[usage]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", usage)
}

// SelectorName returns the display name for a selector value.
func SelectorName(selector uint8) string {
	if name, ok := selectorNames[selector]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", selector)
}

// MatchingName returns the display name for a matching type value.
func MatchingName(matchingType uint8) string {
	if name, ok := matchingNames[matchingType]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", matchingType)
}

// Record is a parsed TLSA resource record, RFC 6698 section 2.1.
type Record struct {
	// Usage is the certificate usage field (0-3).
	Usage uint8

	// Selector is the selector field (0-1).
	Selector uint8

	// MatchingType is the matching type field (0-2).
	MatchingType uint8

	// CertData is the certificate association data: raw bytes or a digest
	// depending on MatchingType.
	CertData []byte
}

// PinnableCertificate returns the complete DER certificate carried by the
// record, when it carries one: selector certificate, exact matching, and a
// payload that parses. Hash-bearing records carry no certificate.
func (r *Record) PinnableCertificate() ([]byte, bool) {
	if r == nil || r.Selector != SelectorCertificate || r.MatchingType != MatchExact {
		return nil, false
	}
	if _, err := certcodec.ParseCertificate(r.CertData); err != nil {
		return nil, false
	}
	return r.CertData, true
}

// PinnedCertificates extracts every complete DER certificate published in
// records, in order, for use as trust policy pins. Records carrying hashes
// or bare public keys are skipped.
func PinnedCertificates(records []*Record) [][]byte {
	var ders [][]byte
	for _, r := range records {
		if der, ok := r.PinnableCertificate(); ok {
			ders = append(ders, der)
		}
	}
	return ders
}

// SPKIPins extracts the raw SubjectPublicKeyInfo blobs published with
// selector public-key and exact matching.
func SPKIPins(records []*Record) [][]byte {
	var spkis [][]byte
	for _, r := range records {
		if r == nil || r.Selector != SelectorPublicKey || r.MatchingType != MatchExact {
			continue
		}
		spkis = append(spkis, r.CertData)
	}
	return spkis
}

// QueryName constructs the TLSA owner name for hostname and port per
// RFC 6698 section 3: "_<port>._tcp.<hostname>." as an absolute name.
func QueryName(hostname string, port uint16) string {
	if !strings.HasSuffix(hostname, ".") {
		hostname += "."
	}
	return fmt.Sprintf("_%d._tcp.%s", port, hostname)
}

// ZoneLine renders the record as a DNS zone file line for the given
// hostname and port, ready to publish.
func (r *Record) ZoneLine(hostname string, port uint16) string {
	return fmt.Sprintf("%s IN TLSA %d %d %d %s",
		QueryName(hostname, port),
		r.Usage, r.Selector, r.MatchingType,
		hex.EncodeToString(r.CertData),
	)
}
