// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMain_Executes(t *testing.T) {
	// Override exitFunc to capture exit calls instead of actually exiting.
	var exitedWith int
	exitFunc = func(code int) {
		exitedWith = code
	}
	defer func() { exitFunc = os.Exit }()

	// main() calls rootCmd.Execute() which without args just prints help.
	// With no subcommand, cobra prints help and returns nil (success).
	main()
	_ = exitedWith // may or may not be set depending on rootCmd behavior
}

func TestErrors_Defined(t *testing.T) {
	assert.NotNil(t, ErrInvalidInput)
	assert.NotNil(t, ErrCheckFailed)
	assert.NotNil(t, ErrLookupFailed)
	assert.NotNil(t, ErrFileOperation)
}

func TestExitCodes_Defined(t *testing.T) {
	assert.Equal(t, 0, ExitSuccess)
	assert.Equal(t, 1, ExitCheckFailed)
	assert.Equal(t, 2, ExitConfigError)
}

func TestExitCode_Mapping(t *testing.T) {
	assert.Equal(t, ExitConfigError, exitCode(fmt.Errorf("%w: --dir is required", ErrInvalidInput)))
	assert.Equal(t, ExitCheckFailed, exitCode(fmt.Errorf("%w: dial: refused", ErrCheckFailed)))
	assert.Equal(t, ExitCheckFailed, exitCode(ErrLookupFailed))
	assert.Equal(t, ExitCheckFailed, exitCode(errors.New("anything else")))
}
