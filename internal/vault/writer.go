package vault

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/journal"
	"github.com/crownix/vault/internal/logging"
	"github.com/crownix/vault/internal/store"
)

// Writer commits vault buffers to disk.
//
// Save never modifies the primary file in place: it backs up the current
// content, writes a sibling temp file and renames it over the primary, so a
// reader sees either the whole old file or the whole new one. Writers for the
// same path must be serialized by the caller; two concurrent saves share the
// temp file name.
type Writer struct {
	backup   *store.BackupSlot
	pointer  *store.PointerStore
	replace  store.ReplaceFunc
	recorder journal.Recorder
	log      *zap.SugaredLogger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithReplace overrides the final rename step.
func WithReplace(fn store.ReplaceFunc) WriterOption {
	return func(w *Writer) { w.replace = fn }
}

// WithWriterLogger sets the logger.
func WithWriterLogger(l *zap.SugaredLogger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// WithWriterRecorder sets the journal recorder.
func WithWriterRecorder(r journal.Recorder) WriterOption {
	return func(w *Writer) { w.recorder = r }
}

// NewWriter creates a writer that backs up into backup and records the saved
// path in pointer.
func NewWriter(backup *store.BackupSlot, pointer *store.PointerStore, opts ...WriterOption) *Writer {
	w := &Writer{
		backup:   backup,
		pointer:  pointer,
		replace:  store.DefaultReplace,
		recorder: journal.Nop{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logging.OrNop(w.log)
	if w.recorder == nil {
		w.recorder = journal.Nop{}
	}
	return w
}

// Save atomically replaces primary with buf.
//
// Errors wrap store.ErrTempWrite when the temp file could not be written (the
// primary is untouched) and store.ErrReplace when the rename failed (the
// primary is untouched and the temp file is left behind). A failed backup or
// pointer update is logged and does not fail the save.
func (w *Writer) Save(primary string, buf []byte) error {
	primary, err := absVaultPath(primary)
	if err != nil {
		return err
	}

	if took, err := w.backup.BackupIfExists(primary); err != nil {
		w.log.Warnw("backup before save failed, continuing", "path", primary, "error", err)
		w.record(domain.OpBackup, primary, err)
	} else if took {
		w.log.Debugw("backed up vault before save", "path", primary, "backup", w.backup.Path())
		w.record(domain.OpBackup, primary, nil)
	}

	if err := store.ReplaceFileContents(primary, buf, w.replace); err != nil {
		w.log.Errorw("vault save failed", "path", primary, "error", err)
		w.record(domain.OpSave, primary, err)
		return err
	}

	w.log.Infow("vault saved", "path", primary, "bytes", len(buf))
	w.record(domain.OpSave, primary, nil)
	w.updatePointer(primary)

	return nil
}

// Create writes buf to a brand-new vault file at path. It takes no backup and
// does not go through a temp file.
func (w *Writer) Create(path string, buf []byte) (err error) {
	path, err = absVaultPath(path)
	if err != nil {
		return err
	}

	defer func() { w.record(domain.OpCreate, path, err) }()

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		w.log.Errorw("vault create failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrCreate, err)
	}

	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		w.log.Errorw("vault write failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := f.Close(); err != nil {
		w.log.Errorw("vault write failed", "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	w.log.Infow("vault created", "path", path, "bytes", len(buf))
	w.updatePointer(path)

	return nil
}

// absVaultPath validates path and makes it absolute, so the recorded pointer
// does not depend on the working directory.
func absVaultPath(path string) (string, error) {
	if _, err := store.TempPath(path); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", store.ErrInvalidPath, err)
	}
	return abs, nil
}

// updatePointer records path as the current vault. The pointer is a hint, so
// a failure is logged and otherwise ignored.
func (w *Writer) updatePointer(path string) {
	err := w.pointer.Save(path)
	if err != nil {
		w.log.Warnw("failed to record current vault path", "path", path, "error", err)
	}
	w.record(domain.OpPointerSave, path, err)
}

func (w *Writer) record(op domain.OperationType, path string, err error) {
	rec := domain.Operation{Type: op, Path: path, Success: err == nil}
	if err != nil {
		rec.Message = err.Error()
	}
	if jerr := w.recorder.Record(rec); jerr != nil {
		w.log.Debugw("failed to journal operation", "op", op, "error", jerr)
	}
}
