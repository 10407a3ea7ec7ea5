// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-trustpolicy/pkg/certbundle"
	"github.com/jeremyhahn/go-trustpolicy/pkg/certcodec"
	"github.com/jeremyhahn/go-trustpolicy/pkg/tlsapin"
	"github.com/jeremyhahn/go-trustpolicy/pkg/trustpolicy"
)

const (
	// defaultCheckTimeout bounds the whole check: pin lookup plus dial.
	defaultCheckTimeout = 10 * time.Second
)

var (
	checkMode           string
	checkBundleDir      string
	checkPinFiles       []string
	checkTLSA           bool
	checkAllowInvalid   bool
	checkSkipServerName bool
	checkTimeout        time.Duration
	checkDNSServer      string
	checkDNSOverTLS     bool
	checkDNSTLSName     string
	checkAllowUnauthDNS bool
)

// checkCmd dials a TLS server and evaluates its trust under a policy.
var checkCmd = &cobra.Command{
	Use:   "check <host:port>",
	Short: "Check a TLS server against a pinning policy",
	Long: `Dial a TLS server, evaluate its certificate chain against the
configured pinning policy, and report the verdict.

Pins are collected from --bundle (a directory of certificate files),
--pin-file (a PEM, DER, or PKCS#7 file, repeatable), and --tlsa (DANE
TLSA records carrying a full certificate). With --mode none, no pins
are required and trust is decided by chain validation alone.

Exit codes: 0 accepted, 1 rejected or connection failed, 2 bad input.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMode, "mode", "none", "pinning mode (none|public-key|certificate)")
	checkCmd.Flags().StringVar(&checkBundleDir, "bundle", "", "directory of certificate files to pin")
	checkCmd.Flags().StringArrayVar(&checkPinFiles, "pin-file", nil, "certificate file to pin (repeatable)")
	checkCmd.Flags().BoolVar(&checkTLSA, "tlsa", false, "pin certificates published in TLSA records for the target")
	checkCmd.Flags().BoolVar(&checkAllowInvalid, "allow-invalid", false, "tolerate chain validation failures (pins still enforced)")
	checkCmd.Flags().BoolVar(&checkSkipServerName, "skip-server-name", false, "skip hostname verification")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", defaultCheckTimeout, "overall timeout for lookup and dial")
	checkCmd.Flags().StringVar(&checkDNSServer, "dns-server", "", "DNS server address for TLSA lookups (e.g., 9.9.9.9:53)")
	checkCmd.Flags().BoolVar(&checkDNSOverTLS, "dns-over-tls", false, "use DNS-over-TLS (DoT) for TLSA lookups")
	checkCmd.Flags().StringVar(&checkDNSTLSName, "dns-tls-server-name", "", "TLS server name for DNS-over-TLS")
	checkCmd.Flags().BoolVar(&checkAllowUnauthDNS, "allow-unauthenticated", false, "accept TLSA answers without DNSSEC authentication (AD flag)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: exactly one <host:port> argument is required", ErrInvalidInput)
	}
	target := args[0]

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return fmt.Errorf("%w: target must be host:port: %w", ErrInvalidInput, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return fmt.Errorf("%w: invalid port %q", ErrInvalidInput, portStr)
	}

	mode, err := trustpolicy.ParsePinningMode(checkMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer sigStop()

	ctx, cancel := context.WithTimeout(sigCtx, checkTimeout)
	defer cancel()

	pins, err := collectPins(ctx, host, uint16(port))
	if err != nil {
		return err
	}

	policy, err := trustpolicy.New(&trustpolicy.Config{
		Mode:                       mode,
		PinnedCertificates:         pins,
		AllowInvalidCertificates:   checkAllowInvalid,
		SkipServerNameVerification: checkSkipServerName,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	slog.Debug("dialing", "target", target, "mode", policy.Mode(), "pins", len(policy.PinnedCertificates()))

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    policy.TLSConfig(host),
	}

	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		if errors.Is(err, trustpolicy.ErrServerTrustRejected) {
			fmt.Printf("Result: REJECT %s (mode=%s)\n", target, policy.Mode())
			return fmt.Errorf("%w: %w", ErrCheckFailed, err)
		}
		return fmt.Errorf("%w: dial: %w", ErrCheckFailed, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()

	fmt.Printf("Result: ACCEPT %s\n", target)
	fmt.Printf("  Mode:        %s (%d pins)\n", policy.Mode(), len(policy.PinnedCertificates()))
	fmt.Printf("  TLS version: %s\n", tls.VersionName(state.Version))
	fmt.Printf("  Cipher:      %s\n", tls.CipherSuiteName(state.CipherSuite))
	fmt.Println("  Chain:")
	for i, cert := range state.PeerCertificates {
		fmt.Printf("    [%d] %s\n", i, cert.Subject.String())
		fmt.Printf("        SPKI SHA-256: %s\n", certcodec.SPKIPinSHA256(cert))
	}

	slog.Info("server trust accepted", "target", target, "mode", policy.Mode())
	return nil
}

// collectPins gathers pinned certificates from the bundle directory, the pin
// files, and TLSA records, in that order.
func collectPins(ctx context.Context, host string, port uint16) ([][]byte, error) {
	var pins [][]byte

	if checkBundleDir != "" {
		ders, err := certbundle.Scan(checkBundleDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFileOperation, err)
		}
		slog.Debug("bundle pins collected", "dir", checkBundleDir, "count", len(ders))
		pins = append(pins, ders...)
	}

	for _, pf := range checkPinFiles {
		data, err := os.ReadFile(pf)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrFileOperation, pf, err)
		}
		ders, err := certcodec.ExtractDER(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidInput, pf, err)
		}
		pins = append(pins, ders...)
	}

	if checkTLSA {
		resolver, err := tlsapin.NewResolver(&tlsapin.ResolverConfig{
			Server:               checkDNSServer,
			DNSOverTLS:           checkDNSOverTLS,
			TLSServerName:        checkDNSTLSName,
			AllowUnauthenticated: checkAllowUnauthDNS,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: resolver: %w", ErrLookupFailed, err)
		}

		records, err := resolver.LookupPins(ctx, host, port)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}

		ders := tlsapin.PinnedCertificates(records)
		slog.Info("TLSA pins collected", "host", host, "records", len(records), "pinnable", len(ders))
		pins = append(pins, ders...)
	}

	return pins, nil
}
