// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	quiet      bool
	debug      bool
	outputFile string
	logFormat  string
)

// logLevel controls the global slog level at runtime.
var logLevel = new(slog.LevelVar)

// exitFunc is the function called to exit the program.
// This can be overridden in tests to capture exit calls.
var exitFunc = os.Exit

var rootCmd = &cobra.Command{
	Use:   "trustpolicy",
	Short: "TLS server trust evaluation with certificate and public key pinning",
	Long: `trustpolicy evaluates TLS server trust against a pinning policy:
standard chain validation plus optional certificate or public key
pinning, with pins sourced from certificate files, bundle directories,
or DANE TLSA records in DNS.

Modes:
  none        - chain validation and hostname check only
  public-key  - a pinned SubjectPublicKeyInfo must appear in the chain
  certificate - a pinned certificate must appear in the chain

The 'check' command dials a server and reports the trust verdict. Use
'pin', 'bundle', and 'tlsa' for pin computation, bundle inspection,
and TLSA record operations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text|json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(tlsaCmd)
	rootCmd.AddCommand(checkCmd)
}

// initLogging configures the global slog logger based on CLI flags.
//
//	--debug: LevelDebug with source location
//	default: LevelInfo
//	--quiet: LevelError (only errors shown)
//
// --debug takes precedence over --quiet.
// --log-format selects the handler: "text" (default) or "json".
func initLogging() {
	switch {
	case debug:
		logLevel.Set(slog.LevelDebug)
	case quiet:
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: debug,
	}

	handlers := map[string]func(io.Writer, *slog.HandlerOptions) slog.Handler{
		"text": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, o) },
		"json": func(w io.Writer, o *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, o) },
	}

	factory, ok := handlers[logFormat]
	if !ok {
		factory = handlers["text"]
	}

	handler := factory(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}

// writeOutput writes data to the configured output file or stdout.
// It respects the --output flag; when empty, writes to stdout.
func writeOutput(data []byte) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, data, 0600); err != nil {
			return fmt.Errorf("%w: %w", ErrFileOperation, err)
		}
		slog.Info("written to file", "path", outputFile, "bytes", len(data))
		return nil
	}
	_, err := os.Stdout.Write(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOperation, err)
	}
	return nil
}
