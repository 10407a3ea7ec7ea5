// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package trustpolicy

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-trustpolicy/pkg/chainverify"
	"github.com/jeremyhahn/go-trustpolicy/pkg/pinset"
)

// fixedNow anchors certificate validity windows so tests do not depend on
// the wall clock.
var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

var serialCounter int64

func nextSerial() *big.Int {
	return big.NewInt(atomic.AddInt64(&serialCounter, 1))
}

// mockVerifier implements chainverify.Verifier with a canned result and
// records how it was invoked.
type mockVerifier struct {
	result      chainverify.Result
	calls       int
	lastName    string
	lastAnchors []*x509.Certificate
}

func (m *mockVerifier) Verify(rawChain [][]byte, serverName string, anchors []*x509.Certificate) chainverify.Result {
	m.calls++
	m.lastName = serverName
	m.lastAnchors = anchors
	return m.result
}

// certsOf builds a chain slice for mock verifier results.
func certsOf(certs ...*x509.Certificate) []*x509.Certificate {
	return certs
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

// testPKI is a root CA that issues server certificates for tests.
type testPKI struct {
	rootCert *x509.Certificate
	rootKey  *ecdsa.PrivateKey
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	key := newKey(t)

	template := &x509.Certificate{
		SerialNumber:          nextSerial(),
		Subject:               pkix.Name{CommonName: "Test Root CA"},
		NotBefore:             fixedNow.Add(-time.Hour),
		NotAfter:              fixedNow.Add(24 * time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &testPKI{rootCert: cert, rootKey: key}
}

// issueServerCert issues a certificate for dnsName bound to key (a fresh
// key when nil), valid for the given window.
func (p *testPKI) issueServerCert(t *testing.T, dnsName string, key *ecdsa.PrivateKey, notBefore, notAfter time.Time) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	if key == nil {
		key = newKey(t)
	}

	template := &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, p.rootCert, &key.PublicKey, p.rootKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

// verifier returns a chain verifier rooted at the PKI, pinned to fixedNow.
func (p *testPKI) verifier() chainverify.Verifier {
	pool := x509.NewCertPool()
	pool.AddCert(p.rootCert)
	return chainverify.New(&chainverify.Config{
		Roots: pool,
		Now:   func() time.Time { return fixedNow },
	})
}

// emptyStoreVerifier returns a chain verifier with an empty trust store,
// pinned to fixedNow.
func emptyStoreVerifier() chainverify.Verifier {
	return chainverify.New(&chainverify.Config{
		Roots: x509.NewCertPool(),
		Now:   func() time.Time { return fixedNow },
	})
}

// newSelfSignedServerCert creates a self-signed server certificate for
// dnsName, valid around fixedNow.
func newSelfSignedServerCert(t *testing.T, dnsName string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key := newKey(t)

	template := &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject:      pkix.Name{CommonName: dnsName},
		DNSNames:     []string{dnsName},
		NotBefore:    fixedNow.Add(-time.Hour),
		NotAfter:     fixedNow.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func TestDefault(t *testing.T) {
	policy := Default()

	assert.Equal(t, PinningModeNone, policy.Mode())
	assert.Empty(t, policy.PinnedCertificates())
	assert.False(t, policy.AllowsInvalidCertificates())
	assert.True(t, policy.ValidatesServerName())
}

func TestNew_NilConfigIsDefault(t *testing.T) {
	policy, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, PinningModeNone, policy.Mode())
	assert.False(t, policy.AllowsInvalidCertificates())
	assert.True(t, policy.ValidatesServerName())
}

func TestNew_PinningModeRequiresPins(t *testing.T) {
	for _, mode := range []PinningMode{PinningModePublicKey, PinningModeCertificate} {
		_, err := New(&Config{Mode: mode})
		assert.ErrorIs(t, err, ErrNoPinnedCertificates, "mode %s", mode)
	}
}

func TestNew_UnknownModeFails(t *testing.T) {
	_, err := New(&Config{Mode: PinningMode(42)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_UnparseablePinFails(t *testing.T) {
	_, err := New(&Config{
		Mode:               PinningModeCertificate,
		PinnedCertificates: [][]byte{[]byte("not a certificate")},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, pinset.ErrInvalidPin)
}

func TestNew_NoneModeAcceptsPins(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")

	policy, err := New(&Config{Mode: PinningModeNone, PinnedCertificates: [][]byte{cert.Raw}})
	require.NoError(t, err)

	// Pins are held but unused in PinningModeNone.
	assert.Len(t, policy.PinnedCertificates(), 1)
}

func TestWithPinningMode(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")

	policy, err := WithPinningMode(PinningModePublicKey, [][]byte{cert.Raw})
	require.NoError(t, err)

	assert.Equal(t, PinningModePublicKey, policy.Mode())
	assert.False(t, policy.AllowsInvalidCertificates())
	assert.True(t, policy.ValidatesServerName())
}

func TestFromBundle(t *testing.T) {
	dir := t.TempDir()
	cert, _ := newSelfSignedServerCert(t, "example.com")
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "pinned.pem"),
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
		0600,
	))

	policy, err := FromBundle(PinningModeCertificate, dir)
	require.NoError(t, err)

	require.Len(t, policy.PinnedCertificates(), 1)
	assert.Equal(t, cert.Raw, policy.PinnedCertificates()[0])
}

func TestFromBundle_MissingDirectory(t *testing.T) {
	_, err := FromBundle(PinningModeCertificate, filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFromBundle_EmptyBundleFailsForPinningModes(t *testing.T) {
	_, err := FromBundle(PinningModePublicKey, t.TempDir())
	assert.ErrorIs(t, err, ErrNoPinnedCertificates)
}

func TestPinnedCertificates_Deduplicated(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")

	policy, err := WithPinningMode(PinningModeCertificate, [][]byte{cert.Raw, cert.Raw})
	require.NoError(t, err)

	assert.Len(t, policy.PinnedCertificates(), 1)
}

func TestPinnedCertificates_ReturnsCopies(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")

	policy, err := WithPinningMode(PinningModeCertificate, [][]byte{cert.Raw})
	require.NoError(t, err)

	pins := policy.PinnedCertificates()
	pins[0][0] ^= 0xff

	assert.Equal(t, cert.Raw, policy.PinnedCertificates()[0])
}

func TestWithPinnedCertificates_ReplacesWholesale(t *testing.T) {
	oldCert, _ := newSelfSignedServerCert(t, "old.example.com")
	newCert, _ := newSelfSignedServerCert(t, "new.example.com")

	original, err := WithPinningMode(PinningModeCertificate, [][]byte{oldCert.Raw})
	require.NoError(t, err)

	replaced, err := original.WithPinnedCertificates([][]byte{newCert.Raw})
	require.NoError(t, err)

	// The original is untouched; the derived policy sees only the new set.
	assert.Equal(t, oldCert.Raw, original.PinnedCertificates()[0])
	assert.Equal(t, newCert.Raw, replaced.PinnedCertificates()[0])
}

func TestWithPinnedCertificates_EmptyFailsForPinningModes(t *testing.T) {
	cert, _ := newSelfSignedServerCert(t, "example.com")

	policy, err := WithPinningMode(PinningModePublicKey, [][]byte{cert.Raw})
	require.NoError(t, err)

	_, err = policy.WithPinnedCertificates(nil)
	assert.ErrorIs(t, err, ErrNoPinnedCertificates)
}

func TestWithAllowInvalidCertificates(t *testing.T) {
	original := Default()
	derived := original.WithAllowInvalidCertificates(true)

	assert.False(t, original.AllowsInvalidCertificates())
	assert.True(t, derived.AllowsInvalidCertificates())
	assert.Equal(t, original.Mode(), derived.Mode())
}

func TestWithServerNameVerification(t *testing.T) {
	original := Default()
	derived := original.WithServerNameVerification(false)

	assert.True(t, original.ValidatesServerName())
	assert.False(t, derived.ValidatesServerName())

	restored := derived.WithServerNameVerification(true)
	assert.True(t, restored.ValidatesServerName())
}

func TestParsePinningMode(t *testing.T) {
	tests := []struct {
		input   string
		want    PinningMode
		wantErr bool
	}{
		{"none", PinningModeNone, false},
		{"public-key", PinningModePublicKey, false},
		{"publickey", PinningModePublicKey, false},
		{"PublicKey", PinningModePublicKey, false},
		{"certificate", PinningModeCertificate, false},
		{" certificate ", PinningModeCertificate, false},
		{"sha256", PinningModeNone, true},
		{"", PinningModeNone, true},
	}

	for _, tc := range tests {
		mode, err := ParsePinningMode(tc.input)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, mode, "input %q", tc.input)
	}
}

func TestPinningModeString(t *testing.T) {
	assert.Equal(t, "none", PinningModeNone.String())
	assert.Equal(t, "public-key", PinningModePublicKey.String())
	assert.Equal(t, "certificate", PinningModeCertificate.String())
	assert.Equal(t, "unknown(9)", PinningMode(9).String())
}

func TestPolicy_ConcurrentEvaluation(t *testing.T) {
	pki := newTestPKI(t)
	leaf, _ := pki.issueServerCert(t, "example.com", nil, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))

	policy, err := New(&Config{
		Mode:               PinningModePublicKey,
		PinnedCertificates: [][]byte{leaf.Raw},
		Verifier:           pki.verifier(),
	})
	require.NoError(t, err)

	trust := NewServerTrust([][]byte{leaf.Raw})
	want := policy.Evaluate(trust, "example.com")
	require.True(t, want)

	// A shared policy value must give identical answers from any number of
	// concurrent evaluations.
	var wg sync.WaitGroup
	var mismatches atomic.Int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if policy.Evaluate(trust, "example.com") != want {
					mismatches.Add(1)
				}
				if policy.Mode() != PinningModePublicKey {
					mismatches.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, mismatches.Load())
}
