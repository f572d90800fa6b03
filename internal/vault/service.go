// Package vault persists the encrypted vault file and recovers from damage.
//
// Service is the entry point for the application layer. Each of its methods
// returns a flat result struct with a Success flag and a message; none of them
// panics or returns a bare error. Auxiliary bookkeeping (the pointer update
// after a save, the backup before an overwrite, revealing the export folder)
// is advisory: its failures are logged and journaled but never fail the
// operation that triggered it.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crownix/vault/internal/clipboard"
	"github.com/crownix/vault/internal/config"
	"github.com/crownix/vault/internal/dialog"
	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/journal"
	"github.com/crownix/vault/internal/logging"
	"github.com/crownix/vault/internal/store"
)

// FileFilterName labels the vault file filter in choosers.
const FileFilterName = "Crownix Vault"

// exportTimeLayout formats the timestamp in exported backup names.
const exportTimeLayout = "20060102-150405"

// Options configures a Service. Zero values get sensible defaults.
type Options struct {
	// Root is the configuration root holding pointer, backup and settings.
	Root string
	// VaultFileName is the file created inside a picked folder.
	VaultFileName string
	// VaultExtension is the extension vault files carry, without a dot.
	VaultExtension string
	// OpenExportFolder reveals the export folder after a successful export.
	OpenExportFolder bool

	Chooser   dialog.Chooser
	Opener    dialog.FolderOpener
	Clipboard *clipboard.Manager
	Recorder  journal.Recorder
	Logger    *zap.SugaredLogger
	Replace   store.ReplaceFunc
	Now       func() time.Time
}

// Service implements the collaborator-facing vault operations.
type Service struct {
	layout   store.Layout
	pointer  *store.PointerStore
	backup   *store.BackupSlot
	settings *store.SettingsStore
	writer   *Writer
	loader   *Loader

	vaultFileName    string
	vaultExtension   string
	openExportFolder bool

	chooser   dialog.Chooser
	opener    dialog.FolderOpener
	clipboard *clipboard.Manager
	recorder  journal.Recorder
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewService wires the stores under opts.Root into a Service.
func NewService(opts Options) (*Service, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("configuration root is required")
	}

	s := &Service{
		layout:           store.NewLayout(opts.Root),
		vaultFileName:    opts.VaultFileName,
		vaultExtension:   strings.TrimPrefix(opts.VaultExtension, "."),
		openExportFolder: opts.OpenExportFolder,
		chooser:          opts.Chooser,
		opener:           opts.Opener,
		clipboard:        opts.Clipboard,
		recorder:         opts.Recorder,
		log:              logging.OrNop(opts.Logger),
		now:              opts.Now,
	}

	if s.vaultFileName == "" {
		s.vaultFileName = config.DefaultVaultFileName
	}
	if s.vaultExtension == "" {
		s.vaultExtension = config.DefaultVaultExtension
	}
	if s.chooser == nil {
		s.chooser = dialog.StaticChooser{}
	}
	if s.opener == nil {
		s.opener = dialog.NopOpener{}
	}
	if s.recorder == nil {
		s.recorder = journal.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.pointer = store.NewPointerStore(s.layout)
	s.backup = store.NewBackupSlot(s.layout)
	s.settings = store.NewSettingsStore(s.layout)

	writerOpts := []WriterOption{WithWriterLogger(s.log), WithWriterRecorder(s.recorder)}
	if opts.Replace != nil {
		writerOpts = append(writerOpts, WithReplace(opts.Replace))
	}
	s.writer = NewWriter(s.backup, s.pointer, writerOpts...)
	s.loader = NewLoader(s.pointer, s.backup, s.recorder, s.log)

	return s, nil
}

// Layout returns the configuration root layout.
func (s *Service) Layout() store.Layout { return s.layout }

// Pointer returns the current-vault pointer store.
func (s *Service) Pointer() *store.PointerStore { return s.pointer }

// Backup returns the backup slot.
func (s *Service) Backup() *store.BackupSlot { return s.backup }

// PickVaultFolder asks for the folder a new vault should be created in and
// reports whether that folder already holds vault files.
func (s *Service) PickVaultFolder() domain.PickFolderResult {
	folder, err := s.chooser.PickFolder()
	if err != nil {
		return domain.PickFolderResult{
			Cancelled: errors.Is(err, dialog.ErrCancelled),
			Message:   folderMessage(err),
			Kind:      Classify(err),
		}
	}

	matches, err := s.scanVaultFiles(folder)
	if err != nil {
		s.log.Warnw("cannot read selected folder", "folder", folder, "error", err)
		return domain.PickFolderResult{Message: "Cannot read selected folder", Kind: domain.KindIO}
	}

	folder, err = filepath.Abs(folder)
	if err != nil {
		return domain.PickFolderResult{Message: "Cannot resolve selected folder", Kind: domain.KindIO}
	}

	return domain.PickFolderResult{
		Success:  true,
		FilePath: filepath.Join(folder, s.vaultFileName),
		Found:    len(matches) > 0,
		Multiple: len(matches) > 1,
	}
}

func (s *Service) scanVaultFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if dialog.HasExtension(entry.Name(), []string{s.vaultExtension}) {
			matches = append(matches, filepath.Join(folder, entry.Name()))
		}
	}
	return matches, nil
}

// PickExistingVaultFile asks for an existing vault file and returns its bytes
// if the header validates.
func (s *Service) PickExistingVaultFile() domain.OpenResult {
	path, err := s.chooser.PickFile(FileFilterName, []string{s.vaultExtension})
	if err != nil {
		return domain.OpenResult{
			Cancelled: errors.Is(err, dialog.ErrCancelled),
			Message:   fileMessage(err),
			Kind:      Classify(err),
		}
	}

	return s.OpenVaultFile(path)
}

// OpenVaultFile reads and validates the vault at path.
func (s *Service) OpenVaultFile(path string) domain.OpenResult {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	buf, err := ReadValidated(path)
	s.record(domain.OpOpen, path, err)
	if err != nil {
		s.log.Warnw("cannot open vault file", "path", path, "error", err)
		return domain.OpenResult{Path: path, Message: err.Error(), Kind: Classify(err)}
	}

	return domain.OpenResult{Success: true, Buffer: buf, Path: path}
}

// CreateVault writes a brand-new vault file.
func (s *Service) CreateVault(path string, buf []byte) domain.CommitResult {
	if err := s.writer.Create(path, buf); err != nil {
		return domain.CommitFailed(Classify(err), err.Error())
	}
	return domain.Committed()
}

// SaveVault atomically replaces the vault at path.
func (s *Service) SaveVault(path string, buf []byte) domain.CommitResult {
	if err := s.writer.Save(path, buf); err != nil {
		return domain.CommitFailed(Classify(err), err.Error())
	}
	return domain.Committed()
}

// AutoLoad loads the current vault, see Loader.AutoLoad.
func (s *Service) AutoLoad() domain.LoadOutcome {
	return s.loader.AutoLoad()
}

// ExportBackup moves the backup slot into folder and returns the exported
// file path. On success the folder is revealed in the OS file browser when
// configured to do so.
func (s *Service) ExportBackup(folder string) domain.ExportResult {
	if strings.TrimSpace(folder) == "" {
		return domain.ExportResult{Message: "export folder is required", Kind: domain.KindInvalidInput}
	}

	dest := filepath.Join(folder, s.exportFileName())

	err := s.backup.ExportAndClear(dest)
	switch {
	case errors.Is(err, store.ErrSlotNotCleared):
		s.log.Warnw("backup exported but the slot could not be cleared", "destination", dest, "error", err)
	case err != nil:
		s.log.Warnw("backup export failed", "destination", dest, "error", err)
		s.record(domain.OpExport, dest, err)
		return domain.ExportResult{Message: err.Error(), Kind: Classify(err)}
	default:
		s.log.Infow("backup exported", "destination", dest)
	}
	s.record(domain.OpExport, dest, nil)

	if s.openExportFolder {
		if err := s.opener.OpenFolder(folder); err != nil {
			s.log.Warnw("failed to open export folder", "folder", folder, "error", err)
		}
	}

	return domain.ExportResult{Success: true, Path: dest}
}

// ChooseAndExportBackup asks for a destination folder, then exports.
func (s *Service) ChooseAndExportBackup() domain.ExportResult {
	folder, err := s.chooser.PickFolder()
	if err != nil {
		return domain.ExportResult{
			Cancelled: errors.Is(err, dialog.ErrCancelled),
			Message:   folderMessage(err),
			Kind:      Classify(err),
		}
	}
	return s.ExportBackup(folder)
}

func (s *Service) exportFileName() string {
	base := strings.TrimSuffix(s.vaultFileName, filepath.Ext(s.vaultFileName))
	return fmt.Sprintf("%s-backup-%s.%s", base, s.now().Format(exportTimeLayout), s.vaultExtension)
}

// ClearConfiguration forgets the current vault. The vault file itself and
// the backup slot are left alone.
func (s *Service) ClearConfiguration() domain.CommitResult {
	err := s.pointer.Clear()
	s.record(domain.OpClearConfig, s.pointer.Path(), err)
	if err != nil {
		return domain.CommitFailed(domain.KindIO, err.Error())
	}
	return domain.Committed()
}

// LoadSettings returns the settings document, {} when none was saved.
func (s *Service) LoadSettings() domain.SettingsResult {
	doc, err := s.settings.Load()
	if err != nil {
		s.log.Warnw("failed to load settings", "path", s.settings.Path(), "error", err)
		return domain.SettingsResult{Message: err.Error(), Kind: Classify(err)}
	}
	return domain.SettingsResult{Success: true, Settings: doc}
}

// SaveSettings replaces the settings document.
func (s *Service) SaveSettings(doc json.RawMessage) domain.CommitResult {
	err := s.settings.Save(doc)
	s.record(domain.OpSettingsSave, s.settings.Path(), err)
	if err != nil {
		return domain.CommitFailed(Classify(err), err.Error())
	}
	return domain.Committed()
}

// CopyToClipboard copies text and clears it again after ttl. The returned
// channel closes once the clear attempt finished or ctx was cancelled.
func (s *Service) CopyToClipboard(ctx context.Context, text string, ttl time.Duration) (<-chan struct{}, domain.CommitResult) {
	if s.clipboard == nil || !s.clipboard.IsAvailable() {
		s.record(domain.OpClipboardCopy, "", errClipboardUnavailable)
		return nil, domain.CommitFailed(domain.KindIO, errClipboardUnavailable.Error())
	}

	done, err := s.clipboard.CopyWithTimeout(ctx, text, ttl)
	s.record(domain.OpClipboardCopy, "", err)
	if err != nil {
		return nil, domain.CommitFailed(domain.KindIO, err.Error())
	}
	return done, domain.Committed()
}

func (s *Service) record(op domain.OperationType, path string, err error) {
	rec := domain.Operation{Type: op, Path: path, Success: err == nil}
	if err != nil {
		rec.Message = err.Error()
	}
	if jerr := s.recorder.Record(rec); jerr != nil {
		s.log.Debugw("failed to journal operation", "op", op, "error", jerr)
	}
}

func folderMessage(err error) string {
	if errors.Is(err, dialog.ErrCancelled) {
		return "Folder selection cancelled"
	}
	return err.Error()
}

func fileMessage(err error) string {
	if errors.Is(err, dialog.ErrCancelled) {
		return "File selection cancelled"
	}
	return err.Error()
}
