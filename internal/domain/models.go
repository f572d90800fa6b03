// Package domain defines the result shapes returned to the application layer
// and the records kept in the operation journal.
//
// Every collaborator-facing result is a flat struct carrying a Success flag and
// optional fields, so a front end can branch on one boolean and read a message.
package domain

import (
	"encoding/json"
	"time"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	// KindCancelled means the user aborted an interactive selection.
	KindCancelled ErrorKind = "cancelled"
	// KindIO means an open, read, write, copy or rename failed.
	KindIO ErrorKind = "io"
	// KindValidation means the bytes were readable but not a trusted vault.
	KindValidation ErrorKind = "validation"
	// KindNotConfigured means no vault pointer is recorded.
	KindNotConfigured ErrorKind = "not_configured"
	// KindInvalidInput means the caller passed an unusable argument.
	KindInvalidInput ErrorKind = "invalid_input"
)

// CommitResult reports the outcome of a write-style operation.
type CommitResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// Committed returns a successful CommitResult.
func Committed() CommitResult {
	return CommitResult{Success: true}
}

// CommitFailed returns a failed CommitResult.
func CommitFailed(kind ErrorKind, message string) CommitResult {
	return CommitResult{Kind: kind, Message: message}
}

// PickFolderResult is returned after the user picked the folder a new vault
// should live in. FilePath is the vault file that would be created there.
type PickFolderResult struct {
	Success   bool      `json:"success"`
	FilePath  string    `json:"file_path,omitempty"`
	Found     bool      `json:"found"`
	Multiple  bool      `json:"multiple"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Message   string    `json:"message,omitempty"`
	Kind      ErrorKind `json:"kind,omitempty"`
}

// OpenResult carries the bytes of a vault file the user picked.
type OpenResult struct {
	Success   bool      `json:"success"`
	Buffer    []byte    `json:"buffer,omitempty"`
	Path      string    `json:"path,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Message   string    `json:"message,omitempty"`
	Kind      ErrorKind `json:"kind,omitempty"`
}

// LoadStatus is the terminal state of an automatic load.
type LoadStatus string

const (
	// StatusLoaded means the primary file was read and its header validated.
	StatusLoaded LoadStatus = "loaded"
	// StatusNotConfigured means no pointer was recorded.
	StatusNotConfigured LoadStatus = "not_configured"
	// StatusDegraded means the pointer resolved but the primary is unusable.
	StatusDegraded LoadStatus = "degraded"
)

// LoadOutcome is the tagged result of an automatic load at startup.
//
// Buffer and Path are set only when Status is StatusLoaded. BackupAvailable and
// Reason are meaningful only when Status is StatusDegraded.
type LoadOutcome struct {
	Status          LoadStatus `json:"status"`
	Buffer          []byte     `json:"buffer,omitempty"`
	Path            string     `json:"path,omitempty"`
	BackupAvailable bool       `json:"backup_available"`
	Reason          ErrorKind  `json:"reason,omitempty"`
	Message         string     `json:"message,omitempty"`
}

// Success reports whether the outcome carries a trusted vault buffer.
func (o LoadOutcome) Success() bool {
	return o.Status == StatusLoaded
}

// ExportResult reports where the backup was exported to.
type ExportResult struct {
	Success   bool      `json:"success"`
	Path      string    `json:"path,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	Message   string    `json:"message,omitempty"`
	Kind      ErrorKind `json:"kind,omitempty"`
}

// SettingsResult carries the user settings document.
type SettingsResult struct {
	Success  bool            `json:"success"`
	Settings json.RawMessage `json:"settings,omitempty"`
	Message  string          `json:"message,omitempty"`
	Kind     ErrorKind       `json:"kind,omitempty"`
}

// OperationType names a journaled operation.
type OperationType string

// Journaled operation types
const (
	OpCreate        OperationType = "create"
	OpSave          OperationType = "save"
	OpBackup        OperationType = "backup"
	OpLoad          OperationType = "load"
	OpOpen          OperationType = "open"
	OpExport        OperationType = "export"
	OpClearConfig   OperationType = "clear_config"
	OpPointerSave   OperationType = "pointer_save"
	OpSettingsSave  OperationType = "settings_save"
	OpClipboardCopy OperationType = "clipboard_copy"
)

// Operation represents one journal record
type Operation struct {
	Seq       uint64        `json:"seq,omitempty"`
	Type      OperationType `json:"type"`
	Path      string        `json:"path,omitempty"`
	Success   bool          `json:"success"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
