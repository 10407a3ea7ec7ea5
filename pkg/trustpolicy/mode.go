// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-trustpolicy/pkg/pinset"
)

// PinningMode selects the criteria by which server trust is evaluated
// against the pinned certificate set.
type PinningMode int

const (
	// PinningModeNone performs no pinning. Trust is decided solely by chain
	// validation against the trust store, plus the hostname check.
	PinningModeNone PinningMode = iota

	// PinningModePublicKey accepts a chain only when at least one of its
	// certificates carries a SubjectPublicKeyInfo byte-equal to a pinned
	// public key. Pins survive certificate rotation that keeps the key.
	PinningModePublicKey

	// PinningModeCertificate accepts a chain only when at least one of its
	// certificates is byte-equal to a pinned certificate. Pinned
	// certificates additionally act as trust anchors, extending trust to
	// self-signed or privately-issued servers.
	PinningModeCertificate
)

var modeNames = map[PinningMode]string{
	PinningModeNone:        "none",
	PinningModePublicKey:   "public-key",
	PinningModeCertificate: "certificate",
}

var modesByName = map[string]PinningMode{
	"none":        PinningModeNone,
	"public-key":  PinningModePublicKey,
	"publickey":   PinningModePublicKey,
	"certificate": PinningModeCertificate,
}

// String returns the mode name used in logs and CLI flags.
func (m PinningMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(m))
}

// ParsePinningMode parses a mode name as accepted on the command line:
// "none", "public-key" (or "publickey"), "certificate". Matching is
// case-insensitive.
func ParsePinningMode(s string) (PinningMode, error) {
	mode, ok := modesByName[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return PinningModeNone, fmt.Errorf("%w: unknown pinning mode %q", ErrInvalidConfig, s)
	}
	return mode, nil
}

func (m PinningMode) valid() bool {
	_, ok := modeNames[m]
	return ok
}

// material maps the mode onto the pin comparison material. The result for
// PinningModeNone is arbitrary since no comparison happens.
func (m PinningMode) material() pinset.Material {
	if m == PinningModePublicKey {
		return pinset.MaterialPublicKey
	}
	return pinset.MaterialCertificate
}
