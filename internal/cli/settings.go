package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newSettingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or replace the user settings document",
		Long: `Read or replace the user settings document.

Settings are an arbitrary JSON document stored next to the vault pointer.

Example:
  crownix settings get
  crownix settings set '{"theme":"dark"}'`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsGet(cmd, a)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <json>",
		Short: "Replace the settings document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettingsSet(cmd, a, args[0])
		},
	})

	return cmd
}

func runSettingsGet(cmd *cobra.Command, a *app) error {
	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		res := svc.LoadSettings()
		if !res.Success {
			return util.FromKind(res.Kind, res.Message)
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, res.Settings, "", "  "); err != nil {
			return fmt.Errorf("failed to format settings: %w", err)
		}
		pretty.WriteByte('\n')
		return writeString(cmd.OutOrStdout(), pretty.String())
	})
}

func runSettingsSet(cmd *cobra.Command, a *app, doc string) error {
	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		res := svc.SaveSettings(json.RawMessage(doc))
		if !res.Success {
			return util.FromKind(res.Kind, res.Message)
		}
		return writeOutput(cmd.OutOrStdout(), "Settings saved.\n")
	})
}
