package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newSaveCommand(a *app) *cobra.Command {
	var (
		inPath string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "save --in FILE",
		Short: "Replace the vault content",
		Long: `Encrypt new plaintext content and atomically replace the vault file.

The current content is copied to the backup slot first. The passphrase must
match the one the vault was sealed with.

Example:
  crownix save --in vault.json
  cat vault.json | crownix save --in -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, a, inPath, path)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "file with the new plaintext content (- for stdin)")
	cmd.Flags().StringVar(&path, "path", "", "vault file to save (default is the current vault)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runSave(cmd *cobra.Command, a *app, inPath, path string) error {
	plaintext, err := readInput(cmd, inPath)
	if err != nil {
		return err
	}

	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		target := path
		if target != "" {
			abs, err := filepath.Abs(target)
			if err != nil {
				return fmt.Errorf("invalid vault path %q: %w", target, err)
			}
			target = abs
		} else {
			current, ok := svc.Pointer().Load()
			if !ok {
				return vault.ErrNotConfigured
			}
			target = current
		}

		passphrase, err := a.passphrase(cmd, "Passphrase: ", false)
		if err != nil {
			return err
		}

		return a.gated(cmd, func() error {
			prev, err := vault.ReadValidated(target)
			if err != nil {
				return err
			}

			sealer := a.sealer()
			if _, _, err := sealer.Open(prev, passphrase); err != nil {
				return fmt.Errorf("cannot unlock %s: %w", target, err)
			}

			buf, err := sealer.Reseal(prev, plaintext, passphrase)
			if err != nil {
				return fmt.Errorf("failed to seal vault: %w", err)
			}

			res := svc.SaveVault(target, buf)
			if !res.Success {
				return util.FromKind(res.Kind, res.Message)
			}
			return writeOutput(cmd.OutOrStdout(), "Saved vault %s\n", target)
		})
	})
}
