package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/header"
	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

type openInfo struct {
	Path       string     `json:"path"`
	Size       int        `json:"size"`
	Version    int        `json:"version"`
	KDF        string     `json:"kdf,omitempty"`
	Iterations int        `json:"iterations,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	Current    bool       `json:"current"`
}

func newOpenCommand(a *app) *cobra.Command {
	var (
		use        bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "open [file]",
		Short: "Open an existing vault file",
		Long: `Check that a file is a Crownix vault and describe it.

With --use the file becomes the current vault that status, show and save
operate on.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runOpen(cmd, a, file, use, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&use, "use", false, "make the file the current vault")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runOpen(cmd *cobra.Command, a *app, file string, use, jsonOutput bool) error {
	return a.withService(serviceOptions{chooser: chooser(cmd, "", file)}, func(svc *vault.Service) error {
		res := svc.PickExistingVaultFile()
		if !res.Success {
			return util.FromKind(res.Kind, res.Message)
		}

		h, err := header.Parse(res.Buffer)
		if err != nil {
			return fmt.Errorf("%w: %v", vault.ErrInvalidVault, err)
		}

		info := openInfo{Path: res.Path, Size: len(res.Buffer), Version: h.Version}
		if seal, err := vault.ReadSealInfo(h); err == nil {
			info.KDF = seal.KDF
			info.Iterations = seal.Iterations
			if !seal.UpdatedAt.IsZero() {
				updated := seal.UpdatedAt.UTC()
				info.UpdatedAt = &updated
			}
		}

		if use {
			if err := svc.Pointer().Save(res.Path); err != nil {
				return fmt.Errorf("failed to make %s the current vault: %w", res.Path, err)
			}
			info.Current = true
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), info)
		}

		out := cmd.OutOrStdout()
		if err := writeOutput(out, "Vault:    %s\nSize:     %d bytes\nVersion:  %d\n", info.Path, info.Size, info.Version); err != nil {
			return err
		}
		if info.KDF != "" {
			if err := writeOutput(out, "KDF:      %s (%d iterations)\n", info.KDF, info.Iterations); err != nil {
				return err
			}
		}
		if info.UpdatedAt != nil {
			if err := writeOutput(out, "Updated:  %s\n", info.UpdatedAt.Format(time.RFC3339)); err != nil {
				return err
			}
		}
		if info.Current {
			return writeOutput(out, "Now the current vault.\n")
		}
		return nil
	})
}
