package cli

import (
	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Decrypt the current vault to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, a)
		},
	}
}

func runShow(cmd *cobra.Command, a *app) error {
	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		out := svc.AutoLoad()
		switch out.Status {
		case domain.StatusNotConfigured:
			return vault.ErrNotConfigured
		case domain.StatusDegraded:
			return util.FromKind(out.Reason, out.Message)
		}

		passphrase, err := a.passphrase(cmd, "Passphrase: ", false)
		if err != nil {
			return err
		}

		plaintext, _, err := a.sealer().Open(out.Buffer, passphrase)
		if err != nil {
			return err
		}
		defer vault.Zeroize(plaintext)

		return writeBytes(cmd.OutOrStdout(), plaintext)
	})
}
