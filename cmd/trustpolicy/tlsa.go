// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-trustpolicy/pkg/tlsapin"
)

const (
	// defaultTLSAPort is the default TLS port for TLSA records.
	defaultTLSAPort = 443

	// defaultTLSATimeout is the default timeout for TLSA lookups.
	defaultTLSATimeout = 10 * time.Second
)

// tlsaCmd is the parent command for DANE/TLSA operations.
var tlsaCmd = &cobra.Command{
	Use:   "tlsa",
	Short: "DANE/TLSA record operations",
	Long:  "Tools for querying and generating DANE TLSA records used as DNS-published pin sources (RFC 6698).",
}

// tlsaShowCmd displays TLSA records from DNS.
var tlsaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display TLSA records for a host and port",
	Long: `Query and display DANE TLSA records for a given hostname and port.
Queries DNS for _<port>._tcp.<hostname> TLSA records, displays them in
a human-readable format, and marks the records usable as certificate
pins (selector full-certificate with exact matching).`,
	RunE: runTLSAShow,
}

// tlsaRecordCmd generates TLSA records from a certificate file.
var tlsaRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Generate TLSA record(s) for DNS publishing",
	Long: `Generate DANE TLSA record(s) from a certificate file as DNS zone file
lines. By default, generates a single record with trust-anchor usage (2),
public-key selector (1), SHA-256 matching (1). Use --all to generate the
common trust-anchor combinations. A record usable as a certificate pin
needs --selector 0 --matching-type 0.`,
	RunE: runTLSARecord,
}

func init() {
	tlsaCmd.AddCommand(tlsaShowCmd)
	tlsaCmd.AddCommand(tlsaRecordCmd)

	// Flags for tlsa show.
	tlsaShowCmd.Flags().String("hostname", "", "hostname to query TLSA records for (required)")
	tlsaShowCmd.Flags().Int("port", defaultTLSAPort, "port number for the TLSA record")
	tlsaShowCmd.Flags().String("dns-server", "", "DNS server address (e.g., 9.9.9.9:53)")
	tlsaShowCmd.Flags().Bool("dns-over-tls", false, "use DNS-over-TLS (DoT) for TLSA lookups")
	tlsaShowCmd.Flags().String("dns-tls-server-name", "", "TLS server name for DNS-over-TLS")
	tlsaShowCmd.Flags().Bool("allow-unauthenticated", false, "accept answers without DNSSEC authentication (AD flag)")

	// Flags for tlsa record.
	tlsaRecordCmd.Flags().String("cert-file", "", "path to certificate file (required)")
	tlsaRecordCmd.Flags().String("hostname", "", "hostname for the TLSA record (required)")
	tlsaRecordCmd.Flags().Int("port", defaultTLSAPort, "port number for the TLSA record")
	tlsaRecordCmd.Flags().Int("usage", int(tlsapin.UsageTrustAnchor), "TLSA usage (0=PKIX-TA, 1=PKIX-EE, 2=DANE-TA, 3=DANE-EE)")
	tlsaRecordCmd.Flags().Int("selector", int(tlsapin.SelectorPublicKey), "TLSA selector (0=full cert, 1=public key)")
	tlsaRecordCmd.Flags().Int("matching-type", int(tlsapin.MatchSHA256), "TLSA matching type (0=exact, 1=SHA-256, 2=SHA-512)")
	tlsaRecordCmd.Flags().Bool("all", false, "generate all common trust-anchor record combinations")
}

// commonRecordParams are the trust-anchor record variants generated by
// --all: both selectors with both hash algorithms.
var commonRecordParams = []struct {
	selector     uint8
	matchingType uint8
}{
	{tlsapin.SelectorCertificate, tlsapin.MatchSHA256},
	{tlsapin.SelectorCertificate, tlsapin.MatchSHA512},
	{tlsapin.SelectorPublicKey, tlsapin.MatchSHA256},
	{tlsapin.SelectorPublicKey, tlsapin.MatchSHA512},
}

func runTLSAShow(cmd *cobra.Command, args []string) error {
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	dnsServer, _ := cmd.Flags().GetString("dns-server")
	dnsOverTLS, _ := cmd.Flags().GetBool("dns-over-tls")
	dnsTLSServerName, _ := cmd.Flags().GetString("dns-tls-server-name")
	allowUnauthenticated, _ := cmd.Flags().GetBool("allow-unauthenticated")

	if hostname == "" {
		return fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}

	resolver, err := tlsapin.NewResolver(&tlsapin.ResolverConfig{
		Server:               dnsServer,
		DNSOverTLS:           dnsOverTLS,
		TLSServerName:        dnsTLSServerName,
		AllowUnauthenticated: allowUnauthenticated,
	})
	if err != nil {
		return fmt.Errorf("%w: resolver: %w", ErrLookupFailed, err)
	}

	sigCtx, sigStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer sigStop()

	ctx, cancel := context.WithTimeout(sigCtx, defaultTLSATimeout)
	defer cancel()

	slog.Debug("querying TLSA records", "hostname", hostname, "port", port, "dns_server", dnsServer)

	records, err := resolver.LookupPins(ctx, hostname, uint16(port))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	fmt.Printf("TLSA records for _%d._tcp.%s:\n\n", port, hostname)
	pinnable := 0
	for i, rec := range records {
		fmt.Printf("Record %d:\n", i+1)
		fmt.Printf("  Usage:         %d (%s)\n", rec.Usage, tlsapin.UsageName(rec.Usage))
		fmt.Printf("  Selector:      %d (%s)\n", rec.Selector, tlsapin.SelectorName(rec.Selector))
		fmt.Printf("  Matching type: %d (%s)\n", rec.MatchingType, tlsapin.MatchingName(rec.MatchingType))
		fmt.Printf("  Data:          %s\n", hex.EncodeToString(rec.CertData))
		if _, ok := rec.PinnableCertificate(); ok {
			fmt.Printf("  Pinnable:      yes\n")
			pinnable++
		} else {
			fmt.Printf("  Pinnable:      no\n")
		}
		fmt.Println()
	}

	fmt.Printf("Total: %d record(s), %d pinnable\n", len(records), pinnable)
	return nil
}

func runTLSARecord(cmd *cobra.Command, args []string) error {
	certFile, _ := cmd.Flags().GetString("cert-file")
	hostname, _ := cmd.Flags().GetString("hostname")
	port, _ := cmd.Flags().GetInt("port")
	usage, _ := cmd.Flags().GetInt("usage")
	selector, _ := cmd.Flags().GetInt("selector")
	matchingType, _ := cmd.Flags().GetInt("matching-type")
	all, _ := cmd.Flags().GetBool("all")

	if certFile == "" {
		return fmt.Errorf("%w: --cert-file is required", ErrInvalidInput)
	}
	if hostname == "" {
		return fmt.Errorf("%w: --hostname is required", ErrInvalidInput)
	}

	certs, err := loadCertsFromFile(certFile)
	if err != nil {
		return err
	}
	cert := certs[0]

	slog.Debug("generating TLSA records", "cert_file", certFile, "hostname", hostname, "port", port, "all", all)

	var lines []string
	if all {
		for _, p := range commonRecordParams {
			rec, genErr := tlsapin.RecordFor(cert, tlsapin.UsageTrustAnchor, p.selector, p.matchingType)
			if genErr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, genErr)
			}
			lines = append(lines, rec.ZoneLine(hostname, uint16(port)))
		}
	} else {
		rec, genErr := tlsapin.RecordFor(cert, uint8(usage), uint8(selector), uint8(matchingType))
		if genErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, genErr)
		}
		lines = append(lines, rec.ZoneLine(hostname, uint16(port)))
	}

	return writeOutput([]byte(strings.Join(lines, "\n") + "\n"))
}
