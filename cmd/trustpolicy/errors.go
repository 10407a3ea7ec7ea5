// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import "errors"

// Exit codes for the CLI.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitCheckFailed indicates a trust check, lookup, or connection failed.
	ExitCheckFailed = 1

	// ExitConfigError indicates a configuration or input validation error.
	ExitConfigError = 2
)

// Sentinel errors for CLI operations.
var (
	// ErrInvalidInput is returned when required input parameters are missing or invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCheckFailed is returned when a server trust check is rejected or the
	// connection cannot be established.
	ErrCheckFailed = errors.New("server trust check failed")

	// ErrLookupFailed is returned when a TLSA record lookup fails.
	ErrLookupFailed = errors.New("TLSA lookup failed")

	// ErrFileOperation is returned when a file read or write operation fails.
	ErrFileOperation = errors.New("file operation failed")
)
