package vault

import (
	"errors"

	"github.com/crownix/vault/internal/dialog"
	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/store"
)

// Error variables for vault persistence
var (
	// ErrNotConfigured is returned when no vault pointer is recorded
	ErrNotConfigured = errors.New("no vault configured")
	// ErrInvalidVault is returned when a file is readable but its header is not trusted
	ErrInvalidVault = errors.New("file is not a valid vault")
	// ErrCreate is returned when a new vault file could not be created
	ErrCreate = errors.New("failed to create vault file")
	// ErrWrite is returned when a new vault file could not be written
	ErrWrite = errors.New("failed to write vault file")
	// ErrRead is returned when a vault file could not be opened or read
	ErrRead = errors.New("failed to read vault file")

	errClipboardUnavailable = errors.New("clipboard is not available")
)

// Classify maps an error to the kind reported in result structs.
func Classify(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dialog.ErrCancelled):
		return domain.KindCancelled
	case errors.Is(err, ErrNotConfigured):
		return domain.KindNotConfigured
	case errors.Is(err, ErrInvalidVault), errors.Is(err, ErrInvalidSealInfo), errors.Is(err, ErrDecryptionFailed):
		return domain.KindValidation
	case errors.Is(err, store.ErrInvalidPath), errors.Is(err, store.ErrInvalidSettings), errors.Is(err, ErrEmptyPassphrase),
		errors.Is(err, dialog.ErrFilterMismatch):
		return domain.KindInvalidInput
	default:
		return domain.KindIO
	}
}
