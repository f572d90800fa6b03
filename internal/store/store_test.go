package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)

	assert.Equal(t, filepath.Join(root, "config.json"), l.PointerPath())
	assert.Equal(t, filepath.Join(root, "settings.json"), l.SettingsPath())
	assert.Equal(t, filepath.Join(root, "backup", "vault.bak"), l.BackupPath())
	assert.Equal(t, filepath.Join(root, "journal.db"), l.JournalPath())
	assert.Equal(t, filepath.Join(root, "vault.lock"), l.LockPath())
}

func TestPointerStore_SaveLoad(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "config")
	p := NewPointerStore(NewLayout(root))

	_, ok := p.Load()
	assert.False(t, ok, "no pointer before first save")

	vaultPath := filepath.Join(t.TempDir(), "CrownixVault.cxv")
	require.NoError(t, p.Save(vaultPath))

	got, ok := p.Load()
	require.True(t, ok)
	assert.Equal(t, vaultPath, got)

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"vault_path":`+mustJSON(t, vaultPath)+`}`, string(data))
}

func TestPointerStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "garbage"},
		{"wrong shape", `["/tmp/v.cxv"]`},
		{"empty path", `{"vault_path":""}`},
		{"wrong type", `{"vault_path":42}`},
		{"empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout(t.TempDir())
			require.NoError(t, os.WriteFile(l.PointerPath(), []byte(tt.content), 0o600))

			path, ok := NewPointerStore(l).Load()
			assert.False(t, ok)
			assert.Empty(t, path)
		})
	}
}

func TestPointerStore_ClearIsIdempotent(t *testing.T) {
	p := NewPointerStore(NewLayout(t.TempDir()))
	require.NoError(t, p.Save("/somewhere/v.cxv"))

	require.NoError(t, p.Clear())
	require.NoError(t, p.Clear())

	_, ok := p.Load()
	assert.False(t, ok)
}

func TestPointerStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the config root directory should be.
	blocker := filepath.Join(dir, "root")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	p := NewPointerStore(NewLayout(filepath.Join(blocker, "sub")))
	assert.Error(t, p.Save("/v.cxv"))
}

func TestSettingsStore_MissingIsEmptyObject(t *testing.T) {
	s := NewSettingsStore(NewLayout(t.TempDir()))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(doc))
}

func TestSettingsStore_RoundTrip(t *testing.T) {
	s := NewSettingsStore(NewLayout(filepath.Join(t.TempDir(), "fresh")))
	doc := json.RawMessage(`{"theme":"dark","autoLock":{"enabled":true,"timeout":300000}}`)

	require.NoError(t, s.Save(doc))

	got, err := s.Load()
	require.NoError(t, err)
	assert.JSONEq(t, string(doc), string(got))
}

func TestSettingsStore_NonObjectDocument(t *testing.T) {
	s := NewSettingsStore(NewLayout(t.TempDir()))

	require.NoError(t, s.Save(json.RawMessage(`[1,2,3]`)))

	got, err := s.Load()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3]`, string(got))
}

func TestSettingsStore_InvalidSave(t *testing.T) {
	s := NewSettingsStore(NewLayout(t.TempDir()))

	assert.ErrorIs(t, s.Save(json.RawMessage(`{"theme":`)), ErrInvalidSettings)
	assert.ErrorIs(t, s.Save(nil), ErrInvalidSettings)

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "invalid document must not be written")
}

func TestSettingsStore_CorruptFile(t *testing.T) {
	s := NewSettingsStore(NewLayout(t.TempDir()))
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"theme":`), 0o600))

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrCorruptSettings)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
