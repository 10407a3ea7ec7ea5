// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package tlsapin

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// defaultTimeout bounds a single TLSA query.
	defaultTimeout = 5 * time.Second

	// defaultDNSPort is the standard DNS port.
	defaultDNSPort = "53"

	// defaultDoTPort is the standard DNS-over-TLS port.
	defaultDoTPort = "853"

	// maxHostnameLen is the DNS name length limit.
	maxHostnameLen = 253
)

// ResolverConfig configures the DNS resolver behind TLSA pin lookups. The
// zero value queries the system resolver and requires DNSSEC-authenticated
// answers.
type ResolverConfig struct {
	// Server is the resolver address ("9.9.9.9", "9.9.9.9:53"). When
	// empty, the first nameserver from /etc/resolv.conf is used.
	Server string

	// DNSOverTLS moves queries onto DNS-over-TLS (port 853).
	DNSOverTLS bool

	// TLSServerName sets the SNI value for DNS-over-TLS connections.
	TLSServerName string

	// AllowUnauthenticated accepts answers without the DNSSEC
	// Authenticated Data flag. The zero value rejects them: unvalidated
	// pins offer no protection against an on-path attacker.
	AllowUnauthenticated bool

	// Timeout bounds a single query. Default: 5 seconds.
	Timeout time.Duration

	// Logger receives lookup diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Resolver looks up TLSA pin material over DNS.
type Resolver struct {
	client        *dns.Client
	server        string
	allowUnauthed bool
	logger        *slog.Logger
}

// NewResolver builds a Resolver from cfg, applying defaults for unset
// fields. A nil cfg is equivalent to the zero configuration. Construction
// fails only when no resolver address can be determined.
func NewResolver(cfg *ResolverConfig) (*Resolver, error) {
	if cfg == nil {
		cfg = &ResolverConfig{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &dns.Client{Timeout: timeout}

	server := cfg.Server
	if cfg.DNSOverTLS {
		client.Net = "tcp-tls"
		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSServerName != "" {
			tlsCfg.ServerName = cfg.TLSServerName
		}
		client.TLSConfig = tlsCfg
		if server != "" && !strings.Contains(server, ":") {
			server += ":" + defaultDoTPort
		}
	} else {
		client.Net = "udp"
		if server != "" && !strings.Contains(server, ":") {
			server += ":" + defaultDNSPort
		}
	}

	if server == "" {
		systemCfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrResolverConfig, err.Error())
		}
		if len(systemCfg.Servers) == 0 {
			return nil, fmt.Errorf("%w: no nameservers in /etc/resolv.conf", ErrResolverConfig)
		}
		port := systemCfg.Port
		if port == "" {
			port = defaultDNSPort
		}
		server = systemCfg.Servers[0] + ":" + port
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		client:        client,
		server:        server,
		allowUnauthed: cfg.AllowUnauthenticated,
		logger:        logger.With("component", "tlsapin"),
	}, nil
}

// LookupPins queries the TLSA records published for hostname and port. The
// owner name is "_<port>._tcp.<hostname>." per RFC 6698 section 3. Unless
// the resolver allows unauthenticated answers, a response without the
// Authenticated Data flag fails with ErrUnauthenticated.
func (r *Resolver) LookupPins(ctx context.Context, hostname string, port uint16) ([]*Record, error) {
	if hostname == "" || len(hostname) > maxHostnameLen || strings.ContainsRune(hostname, 0) {
		return nil, ErrInvalidHostname
	}
	if port == 0 {
		return nil, ErrInvalidPort
	}

	qname := QueryName(hostname, port)
	r.logger.Debug("querying TLSA records", "name", qname, "server", r.server)

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeTLSA)
	msg.SetEdns0(4096, true) // DNSSEC OK bit
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, err.Error())
	}
	if resp == nil {
		return nil, ErrLookupFailed
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: rcode %s", ErrLookupFailed, dns.RcodeToString[resp.Rcode])
	}
	if !resp.AuthenticatedData && !r.allowUnauthed {
		return nil, ErrUnauthenticated
	}

	records := make([]*Record, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		tlsa, ok := rr.(*dns.TLSA)
		if !ok {
			continue
		}
		certData, err := hex.DecodeString(tlsa.Certificate)
		if err != nil {
			r.logger.Warn("skipping TLSA record with invalid hex payload", "name", qname)
			continue
		}
		records = append(records, &Record{
			Usage:        tlsa.Usage,
			Selector:     tlsa.Selector,
			MatchingType: tlsa.MatchingType,
			CertData:     certData,
		})
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	r.logger.Debug("TLSA lookup complete", "name", qname, "records", len(records),
		"authenticated", resp.AuthenticatedData)
	return records, nil
}
