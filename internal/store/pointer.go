package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// pointerDocument is the on-disk shape of the pointer file.
type pointerDocument struct {
	VaultPath string `json:"vault_path"`
}

// PointerStore remembers which file is the current vault.
//
// The pointer is a hint: it may name a file that no longer exists or is no
// longer a valid vault.
type PointerStore struct {
	path string
}

// NewPointerStore creates a pointer store under layout.
func NewPointerStore(layout Layout) *PointerStore {
	return &PointerStore{path: layout.PointerPath()}
}

// Path returns the pointer file location.
func (p *PointerStore) Path() string {
	return p.path
}

// Save records vaultPath as the current vault. The error is advisory; callers
// that only need the pointer as a hint log it and continue.
func (p *PointerStore) Save(vaultPath string) error {
	data, err := json.Marshal(pointerDocument{VaultPath: vaultPath})
	if err != nil {
		return fmt.Errorf("failed to marshal vault pointer: %w", err)
	}

	return writeFileAtomic(p.path, data)
}

// Load returns the recorded vault path. A missing, unreadable or malformed
// pointer file are all reported as ("", false).
func (p *PointerStore) Load() (string, bool) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", false
	}

	var doc pointerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false
	}

	if doc.VaultPath == "" {
		return "", false
	}

	return doc.VaultPath, true
}

// Clear removes the pointer file. Clearing an absent pointer succeeds.
func (p *PointerStore) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove vault pointer: %w", err)
	}
	return nil
}
