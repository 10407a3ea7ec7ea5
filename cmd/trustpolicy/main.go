// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"log/slog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		exitFunc(exitCode(err))
	}
}

// exitCode maps a command error to the process exit code: bad input exits
// 2, everything else exits 1.
func exitCode(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return ExitConfigError
	}
	return ExitCheckFailed
}
