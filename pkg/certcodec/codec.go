// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package certcodec

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

const pemCertificateType = "CERTIFICATE"

// ParseCertificate parses a single DER-encoded X.509 certificate.
func ParseCertificate(der []byte) (*x509.Certificate, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
	}
	return cert, nil
}

// ParseAll parses every DER blob in ders. A single unparseable blob fails
// the whole batch.
func ParseAll(ders [][]byte) ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0, len(ders))
	for i, der := range ders {
		cert, err := ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("blob %d: %w", i, err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// ExtractDER normalizes certificate material into individual DER blobs.
// It accepts PEM with one or more CERTIFICATE blocks, raw DER with one or
// more concatenated certificates, and PKCS#7 SignedData envelopes
// (.p7b/.p7c). Every certificate must parse; order is preserved.
func ExtractDER(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, ErrNoCertificates
	}
	if looksLikePEM(data) {
		return extractPEM(data)
	}

	// Raw DER: one or more concatenated certificates.
	if certs, err := x509.ParseCertificates(data); err == nil {
		if len(certs) == 0 {
			return nil, ErrNoCertificates
		}
		ders := make([][]byte, len(certs))
		for i, cert := range certs {
			ders[i] = cert.Raw
		}
		return ders, nil
	}

	return extractPKCS7(data)
}

// looksLikePEM reports whether data contains a PEM armor boundary. PEM files
// may carry leading commentary (text dumps from openssl), so the marker is
// searched anywhere in the input.
func looksLikePEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN"))
}

func extractPEM(data []byte) ([][]byte, error) {
	var ders [][]byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != pemCertificateType {
			continue
		}
		if _, err := x509.ParseCertificate(block.Bytes); err != nil {
			return nil, fmt.Errorf("%w: PEM block %d: %w", ErrParseCertificate, len(ders), err)
		}
		ders = append(ders, block.Bytes)
	}
	if len(ders) == 0 {
		return nil, ErrNoCertificates
	}
	return ders, nil
}

func extractPKCS7(data []byte) ([][]byte, error) {
	p7, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsePKCS7, err)
	}
	certs := p7.Content.SignedData.Certificates
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	ders := make([][]byte, len(certs))
	for i, cert := range certs {
		ders[i] = cert.Raw
	}
	return ders, nil
}

// EncodePEM renders DER blobs as a concatenated PEM certificate bundle.
func EncodePEM(ders [][]byte) []byte {
	var buf bytes.Buffer
	for _, der := range ders {
		_ = pem.Encode(&buf, &pem.Block{Type: pemCertificateType, Bytes: der})
	}
	return buf.Bytes()
}
