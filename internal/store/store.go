// Package store owns the files the vault subsystem keeps under its
// configuration root: the current-vault pointer, the single backup slot and the
// user settings document. It also provides the same-directory temp-file writer
// used to replace a vault file atomically.
package store

import (
	"errors"
	"path/filepath"
)

// Error variables for store operations
var (
	// ErrNoBackup is returned when the backup slot is empty
	ErrNoBackup = errors.New("no backup available")
	// ErrInvalidSettings is returned when a settings document is not valid JSON
	ErrInvalidSettings = errors.New("settings document is not valid JSON")
	// ErrCorruptSettings is returned when the settings file exists but cannot be parsed
	ErrCorruptSettings = errors.New("settings file is corrupted")
	// ErrInvalidPath is returned when a target path has no usable file name
	ErrInvalidPath = errors.New("invalid vault file path")
	// ErrTempWrite is returned when the temporary file could not be written
	ErrTempWrite = errors.New("failed to write temp file")
	// ErrReplace is returned when the temporary file could not replace the target
	ErrReplace = errors.New("failed to replace vault file")
	// ErrSlotNotCleared is returned when a backup was exported but the slot
	// could not be emptied. The exported file is complete.
	ErrSlotNotCleared = errors.New("backup exported but slot not cleared")
)

// File and directory names under the configuration root
const (
	PointerFileName  = "config.json"
	SettingsFileName = "settings.json"
	BackupDirName    = "backup"
	BackupFileName   = "vault.bak"
	JournalFileName  = "journal.db"
	LockFileName     = "vault.lock"

	// TempSuffix is appended to a vault file name to form its temp file.
	TempSuffix = ".tmp"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Layout derives every persisted path from a single configuration root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// PointerPath is the file recording the current vault location.
func (l Layout) PointerPath() string {
	return filepath.Join(l.Root, PointerFileName)
}

// SettingsPath is the user settings document.
func (l Layout) SettingsPath() string {
	return filepath.Join(l.Root, SettingsFileName)
}

// BackupDir holds the backup slot.
func (l Layout) BackupDir() string {
	return filepath.Join(l.Root, BackupDirName)
}

// BackupPath is the single backup slot file.
func (l Layout) BackupPath() string {
	return filepath.Join(l.BackupDir(), BackupFileName)
}

// JournalPath is the operation journal database.
func (l Layout) JournalPath() string {
	return filepath.Join(l.Root, JournalFileName)
}

// LockPath is the lock file callers use to serialize writers.
func (l Layout) LockPath() string {
	return filepath.Join(l.Root, LockFileName)
}
