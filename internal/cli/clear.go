package cli

import (
	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newClearCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the current vault",
		Long: `Forget which file is the current vault.

The vault file and the backup slot are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, a, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runClear(cmd *cobra.Command, a *app, yes bool) error {
	if !yes {
		ok, err := PromptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Forget the current vault?", false)
		if err != nil {
			return err
		}
		if !ok {
			return writeOutput(cmd.OutOrStdout(), "Aborted.\n")
		}
	}

	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		res := svc.ClearConfiguration()
		if !res.Success {
			return util.FromKind(res.Kind, res.Message)
		}
		return writeOutput(cmd.OutOrStdout(), "Vault configuration cleared.\n")
	})
}
