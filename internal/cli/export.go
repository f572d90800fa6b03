package cli

import (
	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newExportBackupCommand(a *app) *cobra.Command {
	var noOpen bool

	cmd := &cobra.Command{
		Use:   "export-backup [folder]",
		Short: "Move the backup out of the backup slot",
		Long: `Move the backup of the previous vault version into a folder.

The exported file is named after the vault with a timestamp suffix. The
backup slot is emptied after a successful export.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			return runExportBackup(cmd, a, folder, noOpen)
		},
	}

	cmd.Flags().BoolVar(&noOpen, "no-open", false, "do not open the folder after exporting")

	return cmd
}

func runExportBackup(cmd *cobra.Command, a *app, folder string, noOpen bool) error {
	so := serviceOptions{
		chooser:          chooser(cmd, folder, ""),
		openExportFolder: a.cfg.OpenExportFolder && !noOpen,
	}

	return a.withService(so, func(svc *vault.Service) error {
		return a.gated(cmd, func() error {
			res := svc.ChooseAndExportBackup()
			if !res.Success {
				return util.FromKind(res.Kind, res.Message)
			}
			return writeOutput(cmd.OutOrStdout(), "Backup exported to %s\n", res.Path)
		})
	})
}
