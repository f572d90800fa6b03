package cli

import (
	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show crownix configuration",
		Long: `Show crownix configuration.

Configuration is stored in ~/.config/crownix-vault/crownix.yaml by default.

Example:
  crownix config path                # Show config file path
  crownix config get clipboard_ttl   # Get clipboard timeout
  crownix config get                 # Show all configuration`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOutput(cmd.OutOrStdout(), "%s\n", a.cfgFile)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Get configuration value(s)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runConfigGet(cmd, a.cfg, args[0])
			}
			return runConfigGetAll(cmd, a.cfg)
		},
	})

	return cmd
}

func runConfigGet(cmd *cobra.Command, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), "%s\n", value)
}

func runConfigGetAll(cmd *cobra.Command, cfg *config.Config) error {
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), "%s: %s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}
