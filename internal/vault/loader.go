package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/header"
	"github.com/crownix/vault/internal/journal"
	"github.com/crownix/vault/internal/logging"
	"github.com/crownix/vault/internal/store"
)

// Loader resolves the current vault at startup.
//
// It never restores from the backup slot on its own. When the primary cannot
// be trusted it reports whether a backup exists and leaves the decision to the
// caller.
type Loader struct {
	pointer  *store.PointerStore
	backup   *store.BackupSlot
	recorder journal.Recorder
	log      *zap.SugaredLogger
}

// NewLoader creates a loader.
func NewLoader(pointer *store.PointerStore, backup *store.BackupSlot, recorder journal.Recorder, log *zap.SugaredLogger) *Loader {
	if recorder == nil {
		recorder = journal.Nop{}
	}
	return &Loader{
		pointer:  pointer,
		backup:   backup,
		recorder: recorder,
		log:      logging.OrNop(log),
	}
}

// AutoLoad reads and validates the vault the pointer names.
func (l *Loader) AutoLoad() domain.LoadOutcome {
	path, ok := l.pointer.Load()
	if !ok {
		l.log.Debugw("no vault configured", "pointer", l.pointer.Path())
		l.record(path, ErrNotConfigured)
		return domain.LoadOutcome{
			Status:  domain.StatusNotConfigured,
			Message: ErrNotConfigured.Error(),
		}
	}

	buf, err := ReadValidated(path)
	if err != nil {
		backupAvailable := l.backup.Exists()
		l.log.Warnw("vault unavailable", "path", path, "error", err, "backup_available", backupAvailable)
		l.record(path, err)
		return domain.LoadOutcome{
			Status:          domain.StatusDegraded,
			Path:            path,
			BackupAvailable: backupAvailable,
			Reason:          Classify(err),
			Message:         err.Error(),
		}
	}

	l.log.Infow("vault loaded", "path", path, "bytes", len(buf))
	l.record(path, nil)
	return domain.LoadOutcome{
		Status: domain.StatusLoaded,
		Buffer: buf,
		Path:   path,
	}
}

func (l *Loader) record(path string, err error) {
	rec := domain.Operation{Type: domain.OpLoad, Path: path, Success: err == nil}
	if err != nil {
		rec.Message = err.Error()
	}
	if jerr := l.recorder.Record(rec); jerr != nil {
		l.log.Debugw("failed to journal operation", "op", domain.OpLoad, "error", jerr)
	}
}

// ReadValidated reads path fully and checks its header. Read failures wrap
// ErrRead; header failures wrap ErrInvalidVault.
func ReadValidated(path string) ([]byte, error) {
	buf, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}

	if _, err := header.Parse(buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}

	return buf, nil
}
