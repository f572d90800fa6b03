package cli

import (
	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/domain"
	"github.com/crownix/vault/internal/vault"
)

type statusInfo struct {
	Status          domain.LoadStatus `json:"status"`
	VaultPath       string            `json:"vault_path,omitempty"`
	Size            int               `json:"size,omitempty"`
	BackupAvailable bool              `json:"backup_available"`
	Reason          domain.ErrorKind  `json:"reason,omitempty"`
	Message         string            `json:"message,omitempty"`
	ConfigRoot      string            `json:"config_root"`
}

func newStatusCommand(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vault status",
		Long:  "Load the current vault and report whether it is usable, and whether a backup exists when it is not.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, a, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, a *app, jsonOutput bool) error {
	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		out := svc.AutoLoad()

		info := statusInfo{
			Status:          out.Status,
			VaultPath:       out.Path,
			Size:            len(out.Buffer),
			BackupAvailable: out.BackupAvailable || svc.Backup().Exists(),
			Reason:          out.Reason,
			Message:         out.Message,
			ConfigRoot:      a.cfg.ConfigRoot,
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), info)
		}

		w := cmd.OutOrStdout()
		switch out.Status {
		case domain.StatusLoaded:
			return writeOutput(w, "Vault loaded: %s (%d bytes)\nBackup: %s\n", info.VaultPath, info.Size, yesNo(info.BackupAvailable))
		case domain.StatusNotConfigured:
			return writeOutput(w, "No vault configured. Run 'crownix create' or 'crownix open --use'.\n")
		default:
			if err := writeOutput(w, "Vault unavailable: %s\nReason: %s\n", info.VaultPath, info.Message); err != nil {
				return err
			}
			if info.BackupAvailable {
				return writeOutput(w, "A backup is available. Run 'crownix export-backup' to recover it.\n")
			}
			return writeOutput(w, "No backup is available.\n")
		}
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
