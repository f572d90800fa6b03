package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// BackupSlot keeps exactly one copy of the vault content as it was before the
// most recent overwrite. Exporting the slot moves the copy out.
//
// The slot's presence is only a hint: an empty slot means no backup was taken
// yet or the last one was exported, not that no earlier data exists.
type BackupSlot struct {
	dir    string
	path   string
	remove func(string) error
}

// NewBackupSlot creates a backup slot under layout.
func NewBackupSlot(layout Layout) *BackupSlot {
	return &BackupSlot{
		dir:    layout.BackupDir(),
		path:   layout.BackupPath(),
		remove: os.Remove,
	}
}

// Path returns the slot file location, creating its directory if needed.
func (b *BackupSlot) Path() string {
	// Best effort: a failure here resurfaces on the next write to the slot.
	_ = os.MkdirAll(b.dir, dirPerm)
	return b.path
}

// Exists reports whether the slot currently holds a backup.
func (b *BackupSlot) Exists() bool {
	info, err := os.Stat(b.path)
	return err == nil && info.Mode().IsRegular()
}

// BackupIfExists copies the current bytes of primary into the slot, replacing
// any earlier backup. It returns false without error when primary does not
// exist yet.
func (b *BackupSlot) BackupIfExists(primary string) (bool, error) {
	data, err := os.ReadFile(primary)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read vault for backup: %w", err)
	}

	if err := writeFileAtomic(b.Path(), data); err != nil {
		return false, fmt.Errorf("failed to write backup: %w", err)
	}

	return true, nil
}

// ExportAndClear copies the slot to dest and then empties the slot. If the
// copy fails the slot is left intact. If only emptying the slot fails, dest is
// complete and the error wraps ErrSlotNotCleared.
func (b *BackupSlot) ExportAndClear(dest string) error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoBackup
		}
		return fmt.Errorf("failed to read backup: %w", err)
	}

	if _, err := os.Stat(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("export destination unavailable: %w", err)
	}

	if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to export backup: %w", err)
	}

	if err := b.remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: exported to %s: %v", ErrSlotNotCleared, dest, err)
	}

	return nil
}
