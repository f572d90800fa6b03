// Package util maps command failures to process exit codes.
package util

import (
	"errors"
	"fmt"
	"os"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/lock"
	"github.com/crownix/vault/internal/vault"
)

// Exit codes
const (
	ExitOK            = 0
	ExitError         = 1
	ExitInvalidInput  = 2
	ExitVaultLocked   = 3
	ExitIntegrityErr  = 4
	ExitCancelled     = 5
	ExitNotConfigured = 6
)

// ResultError carries the kind and message of a failed result struct.
type ResultError struct {
	Kind    domain.ErrorKind
	Message string
}

func (e *ResultError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// FromKind turns a failed result into an error.
func FromKind(kind domain.ErrorKind, message string) error {
	return &ResultError{Kind: kind, Message: message}
}

// ExitCode returns the exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, lock.ErrLockTimeout) {
		return ExitVaultLocked
	}

	kind := vault.Classify(err)
	var re *ResultError
	if errors.As(err, &re) {
		kind = re.Kind
	}

	switch kind {
	case domain.KindCancelled:
		return ExitCancelled
	case domain.KindNotConfigured:
		return ExitNotConfigured
	case domain.KindValidation:
		return ExitIntegrityErr
	case domain.KindInvalidInput:
		return ExitInvalidInput
	default:
		return ExitError
	}
}

// ExitWithCode exits the program with the specified code and message
func ExitWithCode(code int, format string, args ...interface{}) {
	if format != "" {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	os.Exit(code)
}

// HandleError prints err and exits with its mapped code.
func HandleError(err error, context string) {
	if err == nil {
		return
	}

	code := ExitCode(err)
	switch {
	case code == ExitIntegrityErr:
		ExitWithCode(code, "Error: %v\nRun 'crownix export-backup' to recover the previous version.", WrapError(err, context))
	case context != "":
		ExitWithCode(code, "Error: %s - %v", context, err)
	default:
		ExitWithCode(code, "Error: %v", err)
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}
