// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package certbundle locates pinned certificate material on disk. It scans
// a bundle directory for certificate files and returns their DER contents,
// ready to hand to a trust policy. Files that do not decode are skipped
// with a warning rather than failing the scan, so one stray file cannot
// take down an application relying on the rest of the bundle.
package certbundle

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
)

// ErrBundleDir indicates the bundle directory is missing or unreadable.
var ErrBundleDir = errors.New("certbundle: invalid bundle directory")

// DefaultExtensions lists the file extensions scanned for certificate
// material: raw DER, PEM, and PKCS#7 bundles.
var DefaultExtensions = []string{".cer", ".crt", ".der", ".pem", ".p7b", ".p7c"}

// ScanConfig configures a bundle scan.
type ScanConfig struct {
	// Dir is the bundle directory. Required.
	Dir string

	// Extensions overrides the scanned file extensions (with leading dot,
	// matched case-insensitively). Default: DefaultExtensions.
	Extensions []string

	// Logger receives skip warnings. Default: slog.Default().
	Logger *slog.Logger
}

// Scan returns the DER-encoded certificates found in dir, using the default
// extensions.
func Scan(dir string) ([][]byte, error) {
	return ScanWithConfig(&ScanConfig{Dir: dir})
}

// ScanWithConfig scans cfg.Dir for certificate files. Each matching file
// may contribute multiple certificates (PEM chains, PKCS#7 envelopes);
// duplicates across files are dropped. Unreadable or undecodable files are
// skipped with a warning. Scanning does not recurse into subdirectories.
func ScanWithConfig(cfg *ScanConfig) ([][]byte, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("%w: no directory provided", ErrBundleDir)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "certbundle")

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	wanted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = struct{}{}
	}

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBundleDir, err)
	}

	var blobs [][]byte
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := wanted[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		path := filepath.Join(cfg.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable certificate file", "file", name, "error", err)
			continue
		}

		ders, err := certcodec.ExtractDER(data)
		if err != nil {
			logger.Warn("skipping undecodable certificate file", "file", name, "error", err)
			continue
		}

		for _, der := range ders {
			if _, dup := seen[string(der)]; dup {
				continue
			}
			seen[string(der)] = struct{}{}
			blobs = append(blobs, der)
		}
		logger.Debug("loaded certificate file", "file", name, "certificates", len(ders))
	}

	logger.Debug("bundle scan complete", "dir", cfg.Dir, "certificates", len(blobs))
	return blobs, nil
}
