// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"fmt"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certbundle"
	"github.com/jeremyhahn/go-trustpolicy/pkg/chainverify"
	"github.com/jeremyhahn/go-trustpolicy/pkg/pinset"
)

// defaultVerifier is the process-wide chain verifier backed by the platform
// trust store. Policies share it unless configured otherwise.
var defaultVerifier = chainverify.New(nil)

// emptyPins backs policies constructed without pinned certificates. Building
// an empty set of valid material cannot fail.
var emptyPins, _ = pinset.New(pinset.MaterialCertificate, nil)

// Config configures a Policy. The zero value describes the default policy:
// no pinning, invalid chains rejected, server name verification enabled.
type Config struct {
	// Mode selects the pinning criteria. Default: PinningModeNone.
	Mode PinningMode

	// PinnedCertificates holds the DER-encoded X.509 certificates to pin
	// against. Required non-empty for any mode other than PinningModeNone.
	// Every blob must parse; duplicates are dropped.
	PinnedCertificates [][]byte

	// AllowInvalidCertificates tolerates a failed chain verdict (unknown
	// root, expired certificate, hostname mismatch). With pinning enabled
	// the pin match is still enforced. Without pinning this accepts any
	// presented chain. Development use only.
	AllowInvalidCertificates bool

	// SkipServerNameVerification disables hostname matching during chain
	// validation, mirroring the polarity of tls.Config.InsecureSkipVerify.
	// The zero value verifies the server name.
	SkipServerNameVerification bool

	// Verifier overrides the chain verifier consulted during evaluation.
	// Nil selects the shared platform verifier. Intended for tests and for
	// embedders with their own trust store handling.
	Verifier chainverify.Verifier
}

// Policy is an immutable server trust policy. A single value may be shared
// freely across concurrent evaluations; the With methods derive adjusted
// copies instead of mutating.
type Policy struct {
	mode           PinningMode
	pins           *pinset.Set
	allowInvalid   bool
	skipServerName bool
	verifier       chainverify.Verifier
}

// Default returns the default policy: PinningModeNone, no pinned
// certificates, invalid chains rejected, server name verification enabled.
func Default() *Policy {
	return &Policy{
		mode:     PinningModeNone,
		pins:     emptyPins,
		verifier: defaultVerifier,
	}
}

// New builds a policy from cfg. A nil cfg yields the default policy.
//
// Construction fails with ErrNoPinnedCertificates when a pinning mode is
// configured without pins, and with ErrInvalidConfig when the mode is
// unknown or a pinned blob does not parse as an X.509 certificate.
func New(cfg *Config) (*Policy, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if !cfg.Mode.valid() {
		return nil, fmt.Errorf("%w: unknown pinning mode %d", ErrInvalidConfig, int(cfg.Mode))
	}
	if cfg.Mode != PinningModeNone && len(cfg.PinnedCertificates) == 0 {
		return nil, fmt.Errorf("%w: mode %s", ErrNoPinnedCertificates, cfg.Mode)
	}

	pins, err := pinset.New(cfg.Mode.material(), cfg.PinnedCertificates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = defaultVerifier
	}

	return &Policy{
		mode:           cfg.Mode,
		pins:           pins,
		allowInvalid:   cfg.AllowInvalidCertificates,
		skipServerName: cfg.SkipServerNameVerification,
		verifier:       verifier,
	}, nil
}

// WithPinningMode builds a policy for mode pinned to the given DER-encoded
// certificates, with all other settings at their defaults.
func WithPinningMode(mode PinningMode, pinned [][]byte) (*Policy, error) {
	return New(&Config{Mode: mode, PinnedCertificates: pinned})
}

// FromBundle builds a policy for mode pinned to every certificate found in
// the bundle directory. Construction fails when the directory is unreadable
// or when mode requires pins and the bundle yields none.
func FromBundle(mode PinningMode, bundleDir string) (*Policy, error) {
	pinned, err := certbundle.Scan(bundleDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return New(&Config{Mode: mode, PinnedCertificates: pinned})
}

// Mode returns the pinning mode.
func (p *Policy) Mode() PinningMode {
	return p.mode
}

// PinnedCertificates returns copies of the pinned DER blobs, deduplicated,
// in construction order.
func (p *Policy) PinnedCertificates() [][]byte {
	anchors := p.pins.Anchors()
	if len(anchors) == 0 {
		return nil
	}
	out := make([][]byte, len(anchors))
	for i, cert := range anchors {
		out[i] = append([]byte(nil), cert.Raw...)
	}
	return out
}

// AllowsInvalidCertificates reports whether a failed chain verdict is
// tolerated.
func (p *Policy) AllowsInvalidCertificates() bool {
	return p.allowInvalid
}

// ValidatesServerName reports whether hostname verification is enforced
// during chain validation.
func (p *Policy) ValidatesServerName() bool {
	return !p.skipServerName
}

// WithPinnedCertificates derives a policy with the pinned set replaced
// wholesale. The same construction invariants apply.
func (p *Policy) WithPinnedCertificates(pinned [][]byte) (*Policy, error) {
	if p.mode != PinningModeNone && len(pinned) == 0 {
		return nil, fmt.Errorf("%w: mode %s", ErrNoPinnedCertificates, p.mode)
	}
	pins, err := pinset.New(p.mode.material(), pinned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cp := *p
	cp.pins = pins
	return &cp, nil
}

// WithAllowInvalidCertificates derives a policy with the invalid-chain
// tolerance set to allow.
func (p *Policy) WithAllowInvalidCertificates(allow bool) *Policy {
	cp := *p
	cp.allowInvalid = allow
	return &cp
}

// WithServerNameVerification derives a policy with hostname verification
// set to verify.
func (p *Policy) WithServerNameVerification(verify bool) *Policy {
	cp := *p
	cp.skipServerName = !verify
	return &cp
}

// WithVerifier derives a policy using the given chain verifier. A nil
// verifier restores the shared platform verifier.
func (p *Policy) WithVerifier(verifier chainverify.Verifier) *Policy {
	if verifier == nil {
		verifier = defaultVerifier
	}
	cp := *p
	cp.verifier = verifier
	return &cp
}
