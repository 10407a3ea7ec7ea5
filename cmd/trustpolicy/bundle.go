// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certbundle"
	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
	"github.com/jeremyhahn/go-trustpolicy/pkg/trustpolicy"
)

// bundleCmd is the parent command for bundle directory operations.
var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Certificate bundle directory operations",
	Long: `Tools for working with directories of certificate files
(.cer/.crt/.der/.pem/.p7b/.p7c) used as pinned certificate bundles.

Subcommands:
  scan - List the certificates a bundle directory yields`,
}

// bundleScanCmd scans a directory and lists the certificates found.
var bundleScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory for pinnable certificates",
	Long: `Scan a directory for certificate files and display the certificates
found, with their SPKI pins. Files that cannot be decoded are skipped
with a warning.

With --mode, additionally validate that the scanned set builds a
policy for that pinning mode.`,
	RunE: runBundleScan,
}

func init() {
	bundleCmd.AddCommand(bundleScanCmd)

	bundleScanCmd.Flags().String("dir", "", "directory to scan for certificate files (required)")
	bundleScanCmd.Flags().String("mode", "", "validate the scanned set for a pinning mode (none|public-key|certificate)")
}

// runBundleScan scans a bundle directory and displays the certificates found.
func runBundleScan(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	modeName, _ := cmd.Flags().GetString("mode")

	if dir == "" {
		return fmt.Errorf("%w: --dir is required", ErrInvalidInput)
	}

	slog.Debug("scanning bundle directory", "dir", dir)

	ders, err := certbundle.Scan(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}

	certs, err := certcodec.ParseAll(ders)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	for i, cert := range certs {
		fmt.Printf("Certificate %d:\n", i+1)
		fmt.Printf("  Subject:      %s\n", cert.Subject.String())
		fmt.Printf("  Not After:    %s\n", cert.NotAfter.Format(time.RFC3339))
		fmt.Printf("  SPKI SHA-256: %s\n", certcodec.SPKIPinSHA256(cert))
		fmt.Println()
	}

	fmt.Printf("Total: %d certificate(s)\n", len(certs))

	if modeName != "" {
		mode, parseErr := trustpolicy.ParsePinningMode(modeName)
		if parseErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, parseErr)
		}

		policy, buildErr := trustpolicy.New(&trustpolicy.Config{
			Mode:               mode,
			PinnedCertificates: ders,
		})
		if buildErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, buildErr)
		}

		fmt.Printf("Policy: mode=%s pins=%d\n", policy.Mode(), len(policy.PinnedCertificates()))
	}

	return nil
}
