package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// emptySettings is returned when no settings file exists yet.
var emptySettings = json.RawMessage(`{}`)

// SettingsStore persists the user preferences document. The document is opaque
// to the store; it only has to be valid JSON.
type SettingsStore struct {
	path string
}

// NewSettingsStore creates a settings store under layout.
func NewSettingsStore(layout Layout) *SettingsStore {
	return &SettingsStore{path: layout.SettingsPath()}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load returns the stored document, or {} if none was saved yet.
func (s *SettingsStore) Load() (json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptySettings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if !json.Valid(data) {
		return nil, ErrCorruptSettings
	}

	return json.RawMessage(data), nil
}

// Save replaces the stored document with doc.
func (s *SettingsStore) Save(doc json.RawMessage) error {
	if len(doc) == 0 || !json.Valid(doc) {
		return ErrInvalidSettings
	}

	return writeFileAtomic(s.path, doc)
}
