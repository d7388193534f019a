package main

import (
	"context"
	"errors"
	"net"

	"github.com/sells-group/staff-finder/internal/config"
	"github.com/sells-group/staff-finder/internal/resilience"
)

// Process exit codes.
const (
	exitOK         = 0
	exitValidation = 2
	exitAuth       = 3
	exitNetwork    = 4
	exitUnexpected = 5
)

// usageError marks bad input files or flags.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return exitOK
	}

	var ve *config.ValidationError
	if errors.As(err, &ve) {
		if ve.Auth() {
			return exitAuth
		}
		return exitValidation
	}

	var ue *usageError
	if errors.As(err, &ue) {
		return exitValidation
	}

	var ne net.Error
	if resilience.IsProviderError(err) || errors.As(err, &ne) {
		return exitNetwork
	}
	return exitUnexpected
}
