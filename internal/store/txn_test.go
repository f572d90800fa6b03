package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempPath(t *testing.T) {
	got, err := TempPath(filepath.Join("a", "b", "CrownixVault.cxv"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("a", "b", "CrownixVault.cxv.tmp"), got)

	for _, bad := range []string{"", ".", string(filepath.Separator)} {
		_, err := TempPath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", bad)
	}
}

func TestReplaceFileContents_NewFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "v.cxv")

	require.NoError(t, ReplaceFileContents(target, []byte("data"), nil))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	_, err = os.Stat(target + TempSuffix)
	assert.True(t, os.IsNotExist(err), "temp file should be gone after commit")
}

func TestReplaceFileContents_OverwritesStrayTemp(t *testing.T) {
	target := filepath.Join(t.TempDir(), "v.cxv")
	require.NoError(t, os.WriteFile(target+TempSuffix, []byte("stale temp content that is long"), 0o600))

	require.NoError(t, ReplaceFileContents(target, []byte("new"), nil))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestReplaceFileContents_ReplaceFailureKeepsTarget(t *testing.T) {
	target := filepath.Join(t.TempDir(), "v.cxv")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

	failing := func(source, destination string) error {
		return errors.New("injected rename failure")
	}

	err := ReplaceFileContents(target, []byte("new"), failing)
	require.ErrorIs(t, err, ErrReplace)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), got)

	// The temp file stays behind for inspection.
	temp, err := os.ReadFile(target + TempSuffix)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), temp)
}

func TestReplaceFileContents_TempWriteFailure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing-dir", "v.cxv")

	err := ReplaceFileContents(target, []byte("new"), nil)
	require.ErrorIs(t, err, ErrTempWrite)

	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestAtomicWriter_Abort(t *testing.T) {
	target := filepath.Join(t.TempDir(), "v.cxv")

	w, err := NewAtomicWriter(target, nil)
	require.NoError(t, err)

	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = os.Stat(w.TempPath())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	// Commit after abort reports a temp-write failure.
	assert.ErrorIs(t, w.Commit(), ErrTempWrite)
}
