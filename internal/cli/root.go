// Package cli implements the crownix command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crownix/vault/internal/clipboard"
	"github.com/crownix/vault/internal/config"
	"github.com/crownix/vault/internal/dialog"
	"github.com/crownix/vault/internal/journal"
	"github.com/crownix/vault/internal/lock"
	"github.com/crownix/vault/internal/logging"
	"github.com/crownix/vault/internal/store"
	"github.com/crownix/vault/internal/vault"
)

// PassphraseEnv overrides the interactive passphrase prompt.
const PassphraseEnv = "CROWNIX_PASSPHRASE"

// app holds the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	root    string
	verbose bool

	cfg *config.Config
	log *zap.Logger

	// Replaceable in tests.
	board      clipboard.Board
	opener     dialog.FolderOpener
	passphrase func(cmd *cobra.Command, prompt string, confirm bool) (string, error)
}

// NewRootCommand builds the crownix command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	if a.passphrase == nil {
		a.passphrase = readPassphrase
	}

	rootCmd := &cobra.Command{
		Use:   "crownix",
		Short: "Crownix vault file manager",
		Long: `Crownix keeps an encrypted vault file on disk and recovers it when
something goes wrong.

Saves never modify the vault in place: the previous version is copied to a
backup slot and the new content replaces the file in one atomic rename.
If the vault becomes unreadable, the backup can be exported and inspected.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/crownix-vault/crownix.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "configuration root holding pointer, backup and settings")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newCreateCommand(a))
	rootCmd.AddCommand(newOpenCommand(a))
	rootCmd.AddCommand(newSaveCommand(a))
	rootCmd.AddCommand(newStatusCommand(a))
	rootCmd.AddCommand(newShowCommand(a))
	rootCmd.AddCommand(newExportBackupCommand(a))
	rootCmd.AddCommand(newClearCommand(a))
	rootCmd.AddCommand(newSettingsCommand(a))
	rootCmd.AddCommand(newCopyCommand(a))
	rootCmd.AddCommand(newHistoryCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// Execute runs the crownix command line.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) init(cmd *cobra.Command) error {
	if a.cfgFile == "" {
		a.cfgFile = config.DefaultPath()
	}

	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.root != "" {
		cfg.ConfigRoot = a.root
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.log = logger

	return nil
}

func (a *app) layout() store.Layout {
	return store.NewLayout(a.cfg.ConfigRoot)
}

// serviceOptions tweak the Service built for one command.
type serviceOptions struct {
	chooser          dialog.Chooser
	openExportFolder bool
}

// withService opens the journal, builds a Service and runs fn. The journal is
// optional: if it cannot be opened the command still runs without history.
func (a *app) withService(so serviceOptions, fn func(*vault.Service) error) error {
	sugar := a.log.Sugar()

	var recorder journal.Recorder = journal.Nop{}
	j, err := journal.Open(a.layout().JournalPath(), a.cfg.LockTimeout)
	if err != nil {
		sugar.Warnw("operation journal unavailable", "error", err)
	} else {
		recorder = j
		defer func() {
			if cerr := j.Close(); cerr != nil {
				sugar.Warnw("failed to close journal", "error", cerr)
			}
		}()
	}

	opener := a.opener
	if opener == nil {
		opener = dialog.OSOpener{}
	}

	svc, err := vault.NewService(vault.Options{
		Root:             a.cfg.ConfigRoot,
		VaultFileName:    a.cfg.VaultFileName,
		VaultExtension:   a.cfg.VaultExtension,
		OpenExportFolder: so.openExportFolder,
		Chooser:          so.chooser,
		Opener:           opener,
		Clipboard:        clipboard.NewManager(a.board),
		Recorder:         recorder,
		Logger:           sugar,
	})
	if err != nil {
		return err
	}

	return fn(svc)
}

// gated runs fn while holding the save gate of the configuration root.
func (a *app) gated(cmd *cobra.Command, fn func() error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	path := a.layout().LockPath()
	if err := os.MkdirAll(a.cfg.ConfigRoot, 0o700); err != nil {
		return fmt.Errorf("failed to create configuration root: %w", err)
	}
	err := lock.WithGate(ctx, path, a.cfg.LockTimeout, fn)
	if err != nil {
		a.log.Sugar().Debugw("gated operation finished with error", "lock", path, "error", err)
	}
	return err
}

// chooser answers with arg when given, otherwise prompts on the command's
// streams.
func chooser(cmd *cobra.Command, folder, file string) dialog.Chooser {
	if folder != "" || file != "" {
		return dialog.StaticChooser{Folder: folder, File: file}
	}
	return dialog.NewPromptChooser(cmd.InOrStdin(), cmd.ErrOrStderr())
}

func (a *app) sealer() *vault.Sealer {
	return vault.NewSealer(a.cfg.KDFIterations)
}

func (a *app) clipboardTTL(flagValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return a.cfg.ClipboardTTL
}

// readInput reads path, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
