// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
)

// pinCmd is the parent command for pin material operations.
var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Certificate pin operations",
	Long: `Tools for computing the pin material of certificates: the SHA-256
hash of the SubjectPublicKeyInfo (the public key pin) and the SHA-256
fingerprint of the full certificate.

Subcommands:
  show - Display pin material for every certificate in a file`,
}

// pinShowCmd displays pin material for the certificates in a file.
var pinShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show SPKI pin and fingerprint of a certificate file",
	Long: `Compute and display the SPKI SHA-256 pin and certificate SHA-256
fingerprint for every certificate found in a file. The file may be
PEM (one or more CERTIFICATE blocks), raw DER, or a PKCS#7 bundle
(.p7b/.p7c).`,
	RunE: runPinShow,
}

func init() {
	pinCmd.AddCommand(pinShowCmd)

	pinShowCmd.Flags().String("cert-file", "", "path to certificate file (PEM, DER, or PKCS#7) (required)")
}

// runPinShow computes and displays pin material for each certificate in a file.
func runPinShow(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")

	if certFile == "" {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}

	certs, err := loadCertsFromFile(certFile)
	if err != nil {
		return err
	}

	for i, cert := range certs {
		fmt.Printf("Certificate %d:\n", i+1)
		fmt.Printf("  Subject:      %s\n", cert.Subject.String())
		fmt.Printf("  Issuer:       %s\n", cert.Issuer.String())
		fmt.Printf("  Not After:    %s\n", cert.NotAfter.Format(time.RFC3339))
		fmt.Printf("  SPKI SHA-256: %s\n", certcodec.SPKIPinSHA256(cert))
		fmt.Printf("  Cert SHA-256: %s\n", certcodec.FingerprintSHA256(cert.Raw))
		fmt.Println()
	}

	fmt.Printf("Total: %d certificate(s)\n", len(certs))
	return nil
}

// loadCertsFromFile reads every certificate from a PEM, DER, or PKCS#7 file.
func loadCertsFromFile(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFileOperation, path, err)
	}

	ders, err := certcodec.ExtractDER(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}

	certs, err := certcodec.ParseAll(ders)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, path, err)
	}

	return certs, nil
}
