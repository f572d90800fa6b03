package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/util"
	"github.com/crownix/vault/internal/vault"
)

func newCopyCommand(a *app) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "copy <text>",
		Short: "Copy text to the clipboard and clear it after a timeout",
		Long: `Copy text to the clipboard and clear it again after a timeout.

The command waits until the clipboard was cleared. The clipboard is only
cleared if it still holds the copied text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, a, args[0], ttl)
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "time before the clipboard is cleared (0 uses the config default)")

	return cmd
}

func runCopy(cmd *cobra.Command, a *app, text string, ttl time.Duration) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ttl = a.clipboardTTL(ttl)

	return a.withService(serviceOptions{}, func(svc *vault.Service) error {
		done, res := svc.CopyToClipboard(ctx, text, ttl)
		if !res.Success {
			return util.FromKind(res.Kind, res.Message)
		}

		if err := writeOutput(cmd.OutOrStdout(), "Copied to clipboard. Clearing in %s.\n", ttl); err != nil {
			return err
		}

		<-done
		return nil
	})
}
