package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

// emptyVault is sealed when create runs without --in.
const emptyVault = `{}`

func newCreateCommand(a *app) *cobra.Command {
	var (
		inPath string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "create [folder]",
		Short: "Create a new vault file",
		Long: `Create a new encrypted vault file in a folder and make it the current vault.

The folder is taken from the argument or asked for interactively. If the
folder already holds vault files, create refuses unless --force is given.

Example:
  crownix create ~/Documents --in vault.json
  CROWNIX_PASSPHRASE=... crownix create ~/Documents`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return runCreate(cmd, a, folder, inPath, force)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "file with the plaintext vault content (- for stdin)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "create even if the folder already holds a vault")

	return cmd
}

func runCreate(cmd *cobra.Command, a *app, folder, inPath string, force bool) error {
	plaintext := []byte(emptyVault)
	if inPath != "" {
		data, err := readInput(cmd, inPath)
		if err != nil {
			return err
		}
		plaintext = data
	}

	return a.withService(serviceOptions{chooser: chooser(cmd, folder, "")}, func(svc *vault.Service) error {
		picked := svc.PickVaultFolder()
		if !picked.Success {
			return util.FromKind(picked.Kind, picked.Message)
		}

		if picked.Found && !force {
			msg := "folder already contains a vault file, open it with 'crownix open'"
			if picked.Multiple {
				msg = "folder already contains several vault files, open one with 'crownix open'"
			}
			return util.FromKind(domain.KindInvalidInput, msg+" or pass --force")
		}

		passphrase, err := a.passphrase(cmd, "New passphrase: ", true)
		if err != nil {
			return err
		}

		buf, err := a.sealer().Seal(plaintext, passphrase)
		if err != nil {
			return fmt.Errorf("failed to seal vault: %w", err)
		}

		return a.gated(cmd, func() error {
			res := svc.CreateVault(picked.FilePath, buf)
			if !res.Success {
				return util.FromKind(res.Kind, res.Message)
			}
			return writeOutput(cmd.OutOrStdout(), "Created vault %s\n", picked.FilePath)
		})
	})
}
