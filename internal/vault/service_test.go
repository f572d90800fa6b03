package vault

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownix/vault/internal/clipboard"
	"github.com/crownix/vault/internal/dialog"
	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/journal"
	"github.com/crownix/vault/internal/store"
)

type recordingOpener struct {
	opened []string
	err    error
}

func (r *recordingOpener) OpenFolder(path string) error {
	r.opened = append(r.opened, path)
	return r.err
}

type memBoard struct {
	mu      sync.Mutex
	content string
	readErr error
}

func (b *memBoard) ReadAll() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return "", b.readErr
	}
	return b.content, nil
}

func (b *memBoard) WriteAll(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = text
	return nil
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestService(t *testing.T, mutate func(*Options)) *Service {
	t.Helper()
	log, _ := observedLogger()
	opts := Options{
		Root:   t.TempDir(),
		Logger: log,
		Now:    func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := NewService(opts)
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresRoot(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

// A full session: create, reload, save, reload, export the backup.
func TestService_EndToEnd(t *testing.T) {
	svc := newTestService(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "CrownixVault.cxv")

	hello := vaultBuffer(t, "hello")
	require.True(t, svc.CreateVault(path, hello).Success)

	out := svc.AutoLoad()
	require.Equal(t, domain.StatusLoaded, out.Status)
	assert.Equal(t, hello, out.Buffer)

	world := vaultBuffer(t, "world")
	require.True(t, svc.SaveVault(path, world).Success)

	out = svc.AutoLoad()
	require.Equal(t, domain.StatusLoaded, out.Status)
	assert.Equal(t, world, out.Buffer)

	backup, err := os.ReadFile(svc.Backup().Path())
	require.NoError(t, err)
	assert.Equal(t, hello, backup)

	exportDir := t.TempDir()
	res := svc.ExportBackup(exportDir)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, filepath.Join(exportDir, "CrownixVault-backup-20240309-140507.cxv"), res.Path)

	exported, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, hello, exported)
	assert.False(t, svc.Backup().Exists(), "export moves the backup out of the slot")
}

func TestService_AutoLoadNotConfigured(t *testing.T) {
	svc := newTestService(t, nil)
	out := svc.AutoLoad()
	assert.Equal(t, domain.StatusNotConfigured, out.Status)
}

func TestService_AutoLoadDegradedAfterCorruption(t *testing.T) {
	svc := newTestService(t, nil)
	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")

	require.True(t, svc.CreateVault(path, vaultBuffer(t, "v1")).Success)
	require.True(t, svc.SaveVault(path, vaultBuffer(t, "v2")).Success)
	require.NoError(t, os.WriteFile(path, []byte("corrupt"), 0o600))

	out := svc.AutoLoad()
	assert.Equal(t, domain.StatusDegraded, out.Status)
	assert.True(t, out.BackupAvailable)
	assert.Equal(t, domain.KindValidation, out.Reason)
}

func TestService_SaveReplaceFailure(t *testing.T) {
	svc := newTestService(t, func(o *Options) {
		o.Replace = func(string, string) error { return errors.New("rename refused") }
	})
	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")

	res := svc.SaveVault(path, vaultBuffer(t, "x"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindIO, res.Kind)
	assert.NotEmpty(t, res.Message)
}

func TestService_CreateVaultInvalidPath(t *testing.T) {
	svc := newTestService(t, nil)
	res := svc.CreateVault("", vaultBuffer(t, "x"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindInvalidInput, res.Kind)
}

func TestService_PickVaultFolder(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		found    bool
		multiple bool
	}{
		{"empty folder", nil, false, false},
		{"one vault", []string{"a.cxv"}, true, false},
		{"two vaults", []string{"a.cxv", "B.CXV"}, true, true},
		{"other files ignored", []string{"notes.txt", "a.cxv.tmp"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder := t.TempDir()
			for _, name := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(folder, name), []byte("x"), 0o600))
			}

			svc := newTestService(t, func(o *Options) {
				o.Chooser = dialog.StaticChooser{Folder: folder}
			})

			res := svc.PickVaultFolder()
			require.True(t, res.Success)
			assert.Equal(t, filepath.Join(folder, "CrownixVault.cxv"), res.FilePath)
			assert.Equal(t, tt.found, res.Found)
			assert.Equal(t, tt.multiple, res.Multiple)
		})
	}
}

// A relative folder is recorded absolutely, so auto-load works from any
// working directory.
func TestService_RelativeFolderSurvivesChdir(t *testing.T) {
	work := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(work, "vaults"), 0o700))
	chdir(t, work)

	svc := newTestService(t, func(o *Options) {
		o.Chooser = dialog.StaticChooser{Folder: "vaults"}
	})

	picked := svc.PickVaultFolder()
	require.True(t, picked.Success, picked.Message)
	want := filepath.Join(work, "vaults", "CrownixVault.cxv")
	assert.Equal(t, want, picked.FilePath)

	buf := vaultBuffer(t, "hello")
	require.True(t, svc.CreateVault(filepath.Join("vaults", "CrownixVault.cxv"), buf).Success)

	current, ok := svc.Pointer().Load()
	require.True(t, ok)
	assert.Equal(t, want, current)

	chdir(t, t.TempDir())

	out := svc.AutoLoad()
	require.Equal(t, domain.StatusLoaded, out.Status, out.Message)
	assert.Equal(t, buf, out.Buffer)
}

func TestService_PickVaultFolderCancelled(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.PickVaultFolder()
	assert.False(t, res.Success)
	assert.True(t, res.Cancelled)
	assert.Equal(t, domain.KindCancelled, res.Kind)
}

func TestService_PickVaultFolderUnreadable(t *testing.T) {
	svc := newTestService(t, func(o *Options) {
		o.Chooser = dialog.StaticChooser{Folder: filepath.Join(t.TempDir(), "missing")}
	})

	res := svc.PickVaultFolder()
	assert.False(t, res.Success)
	assert.False(t, res.Cancelled)
	assert.Equal(t, domain.KindIO, res.Kind)
}

func TestService_PickExistingVaultFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cxv")
	buf := vaultBuffer(t, "payload")
	require.NoError(t, os.WriteFile(good, buf, 0o600))

	bad := filepath.Join(dir, "bad.cxv")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0o600))

	t.Run("valid", func(t *testing.T) {
		svc := newTestService(t, func(o *Options) { o.Chooser = dialog.StaticChooser{File: good} })
		res := svc.PickExistingVaultFile()
		require.True(t, res.Success, res.Message)
		assert.Equal(t, buf, res.Buffer)
		assert.Equal(t, good, res.Path)

		_, ok := svc.Pointer().Load()
		assert.False(t, ok, "opening does not change the current vault")
	})

	t.Run("invalid header", func(t *testing.T) {
		svc := newTestService(t, func(o *Options) { o.Chooser = dialog.StaticChooser{File: bad} })
		res := svc.PickExistingVaultFile()
		assert.False(t, res.Success)
		assert.Equal(t, domain.KindValidation, res.Kind)
		assert.Nil(t, res.Buffer)
	})

	t.Run("wrong extension", func(t *testing.T) {
		svc := newTestService(t, func(o *Options) {
			o.Chooser = dialog.StaticChooser{File: filepath.Join(dir, "notes.txt")}
		})
		res := svc.PickExistingVaultFile()
		assert.False(t, res.Success)
		assert.Equal(t, domain.KindInvalidInput, res.Kind)
	})

	t.Run("cancelled", func(t *testing.T) {
		svc := newTestService(t, nil)
		res := svc.PickExistingVaultFile()
		assert.True(t, res.Cancelled)
		assert.Equal(t, domain.KindCancelled, res.Kind)
	})
}

func TestService_ExportBackupWithoutBackup(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.ExportBackup(t.TempDir())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, store.ErrNoBackup.Error())
}

func TestService_ExportBackupMissingFolderKeepsSlot(t *testing.T) {
	svc := newTestService(t, nil)
	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")
	require.True(t, svc.CreateVault(path, vaultBuffer(t, "v1")).Success)
	require.True(t, svc.SaveVault(path, vaultBuffer(t, "v2")).Success)

	res := svc.ExportBackup(filepath.Join(t.TempDir(), "missing"))
	assert.False(t, res.Success)
	assert.True(t, svc.Backup().Exists(), "failed export keeps the backup")

	res = svc.ExportBackup("  ")
	assert.Equal(t, domain.KindInvalidInput, res.Kind)
}

func TestService_ExportBackupOpensFolder(t *testing.T) {
	opener := &recordingOpener{err: errors.New("no desktop")}
	exportDir := t.TempDir()
	svc := newTestService(t, func(o *Options) {
		o.Opener = opener
		o.OpenExportFolder = true
		o.Chooser = dialog.StaticChooser{Folder: exportDir}
	})

	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")
	require.True(t, svc.CreateVault(path, vaultBuffer(t, "v1")).Success)
	require.True(t, svc.SaveVault(path, vaultBuffer(t, "v2")).Success)

	res := svc.ChooseAndExportBackup()
	require.True(t, res.Success, "opener failure must not fail the export")
	assert.Equal(t, []string{exportDir}, opener.opened)
}

func TestService_ChooseAndExportBackupCancelled(t *testing.T) {
	svc := newTestService(t, nil)
	res := svc.ChooseAndExportBackup()
	assert.True(t, res.Cancelled)
	assert.False(t, res.Success)
}

func TestService_ClearConfiguration(t *testing.T) {
	svc := newTestService(t, nil)
	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")
	require.True(t, svc.CreateVault(path, vaultBuffer(t, "v1")).Success)

	require.True(t, svc.ClearConfiguration().Success)
	assert.Equal(t, domain.StatusNotConfigured, svc.AutoLoad().Status)

	_, err := os.Stat(path)
	assert.NoError(t, err, "the vault file itself is kept")

	assert.True(t, svc.ClearConfiguration().Success, "clearing twice succeeds")
}

func TestService_Settings(t *testing.T) {
	svc := newTestService(t, nil)

	res := svc.LoadSettings()
	require.True(t, res.Success)
	assert.JSONEq(t, `{}`, string(res.Settings))

	doc := json.RawMessage(`{"theme":"dark","autoLockMinutes":5}`)
	require.True(t, svc.SaveSettings(doc).Success)

	res = svc.LoadSettings()
	require.True(t, res.Success)
	assert.JSONEq(t, string(doc), string(res.Settings))

	bad := svc.SaveSettings(json.RawMessage(`{"theme":`))
	assert.False(t, bad.Success)
	assert.Equal(t, domain.KindInvalidInput, bad.Kind)

	res = svc.LoadSettings()
	assert.JSONEq(t, string(doc), string(res.Settings), "rejected save leaves settings unchanged")
}

func TestService_CopyToClipboard(t *testing.T) {
	board := &memBoard{}
	svc := newTestService(t, func(o *Options) { o.Clipboard = clipboard.NewManager(board) })

	ctx, cancel := context.WithCancel(context.Background())
	done, res := svc.CopyToClipboard(ctx, "s3cret", time.Hour)
	require.True(t, res.Success)

	got, _ := board.ReadAll()
	assert.Equal(t, "s3cret", got)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("clear goroutine did not stop after cancel")
	}
}

func TestService_CopyToClipboardUnavailable(t *testing.T) {
	svc := newTestService(t, nil)
	_, res := svc.CopyToClipboard(context.Background(), "x", time.Second)
	assert.False(t, res.Success)

	board := &memBoard{readErr: errors.New("no display")}
	svc = newTestService(t, func(o *Options) { o.Clipboard = clipboard.NewManager(board) })
	_, res = svc.CopyToClipboard(context.Background(), "s3cret", time.Second)
	assert.False(t, res.Success)
	assert.Equal(t, domain.KindIO, res.Kind)
	assert.Empty(t, board.content, "nothing is written to an unreadable clipboard")
}

func TestService_JournalsOperations(t *testing.T) {
	root := t.TempDir()
	j, err := journal.Open(store.NewLayout(root).JournalPath(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	svc := newTestService(t, func(o *Options) {
		o.Root = root
		o.Recorder = j
	})

	path := filepath.Join(t.TempDir(), "CrownixVault.cxv")
	require.True(t, svc.CreateVault(path, vaultBuffer(t, "v1")).Success)
	require.True(t, svc.SaveVault(path, vaultBuffer(t, "v2")).Success)
	svc.AutoLoad()

	ops, err := j.List(0)
	require.NoError(t, err)

	var types []domain.OperationType
	for _, op := range ops {
		types = append(types, op.Type)
	}
	assert.Equal(t, []domain.OperationType{
		domain.OpLoad,
		domain.OpPointerSave,
		domain.OpSave,
		domain.OpBackup,
		domain.OpCreate,
		domain.OpPointerSave,
	}, types)
}

// chdir changes the working directory for the rest of the test and restores
// it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
