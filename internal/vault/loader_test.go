package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/store"
)

type loaderFixture struct {
	layout  store.Layout
	pointer *store.PointerStore
	backup  *store.BackupSlot
	rec     *memRecorder
	loader  *Loader
	dir     string
}

func newLoaderFixture(t *testing.T) *loaderFixture {
	t.Helper()
	f := &loaderFixture{
		layout: store.NewLayout(t.TempDir()),
		rec:    &memRecorder{},
		dir:    t.TempDir(),
	}
	f.pointer = store.NewPointerStore(f.layout)
	f.backup = store.NewBackupSlot(f.layout)

	log, _ := observedLogger()
	f.loader = NewLoader(f.pointer, f.backup, f.rec, log)
	return f
}

func TestLoader_NotConfigured(t *testing.T) {
	f := newLoaderFixture(t)

	out := f.loader.AutoLoad()
	assert.Equal(t, domain.StatusNotConfigured, out.Status)
	assert.False(t, out.Success())
	assert.Nil(t, out.Buffer)
	assert.False(t, out.BackupAvailable)
}

func TestLoader_Loaded(t *testing.T) {
	f := newLoaderFixture(t)
	path := filepath.Join(f.dir, "CrownixVault.cxv")
	buf := vaultBuffer(t, "payload")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	require.NoError(t, f.pointer.Save(path))

	out := f.loader.AutoLoad()
	require.Equal(t, domain.StatusLoaded, out.Status)
	assert.True(t, out.Success())
	assert.Equal(t, buf, out.Buffer)
	assert.Equal(t, path, out.Path)

	require.Len(t, f.rec.ops, 1)
	assert.Equal(t, domain.OpLoad, f.rec.ops[0].Type)
	assert.True(t, f.rec.ops[0].Success)
}

func TestLoader_DegradedMissingFile(t *testing.T) {
	tests := []struct {
		name       string
		withBackup bool
	}{
		{"without backup", false},
		{"with backup", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoaderFixture(t)
			path := filepath.Join(f.dir, "gone.cxv")
			require.NoError(t, f.pointer.Save(path))

			if tt.withBackup {
				src := filepath.Join(f.dir, "src.cxv")
				require.NoError(t, os.WriteFile(src, vaultBuffer(t, "old"), 0o600))
				took, err := f.backup.BackupIfExists(src)
				require.NoError(t, err)
				require.True(t, took)
			}

			out := f.loader.AutoLoad()
			assert.Equal(t, domain.StatusDegraded, out.Status)
			assert.False(t, out.Success())
			assert.Equal(t, tt.withBackup, out.BackupAvailable)
			assert.Equal(t, domain.KindIO, out.Reason)
			assert.Nil(t, out.Buffer)
		})
	}
}

func TestLoader_DegradedCorruptHeader(t *testing.T) {
	f := newLoaderFixture(t)
	path := filepath.Join(f.dir, "CrownixVault.cxv")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xFF, 0xFF, 0x7F, '{'}, 0o600))
	require.NoError(t, f.pointer.Save(path))

	out := f.loader.AutoLoad()
	assert.Equal(t, domain.StatusDegraded, out.Status)
	assert.Equal(t, domain.KindValidation, out.Reason)
	assert.False(t, out.BackupAvailable)
}

func TestLoader_DegradedNeverRestores(t *testing.T) {
	f := newLoaderFixture(t)
	path := filepath.Join(f.dir, "CrownixVault.cxv")
	corrupt := []byte("garbage")
	require.NoError(t, os.WriteFile(path, corrupt, 0o600))
	require.NoError(t, f.pointer.Save(path))

	src := filepath.Join(f.dir, "src.cxv")
	require.NoError(t, os.WriteFile(src, vaultBuffer(t, "good"), 0o600))
	_, err := f.backup.BackupIfExists(src)
	require.NoError(t, err)

	out := f.loader.AutoLoad()
	require.Equal(t, domain.StatusDegraded, out.Status)
	assert.True(t, out.BackupAvailable)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, got, "primary is left as is")
	assert.True(t, f.backup.Exists(), "backup is left in its slot")
}

func TestReadValidated(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.cxv")
	require.NoError(t, os.WriteFile(good, vaultBuffer(t, "x"), 0o600))
	buf, err := ReadValidated(good)
	require.NoError(t, err)
	assert.NotEmpty(t, buf)

	_, err = ReadValidated(filepath.Join(dir, "missing.cxv"))
	assert.ErrorIs(t, err, ErrRead)

	bad := filepath.Join(dir, "bad.cxv")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))
	_, err = ReadValidated(bad)
	assert.ErrorIs(t, err, ErrInvalidVault)
}
