package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crownix/vault/internal/journal"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent vault operations",
		Long:  "List the journaled create, save, backup, load and export operations, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, a, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, a *app, limit int, jsonOutput bool) error {
	j, err := journal.Open(a.layout().JournalPath(), a.cfg.LockTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := j.Close(); cerr != nil {
			a.log.Sugar().Warnw("failed to close journal", "error", cerr)
		}
	}()

	ops, err := j.List(limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), ops)
	}

	w := cmd.OutOrStdout()
	if len(ops) == 0 {
		return writeOutput(w, "No operations recorded.\n")
	}

	for _, op := range ops {
		status := "ok"
		if !op.Success {
			status = "failed"
		}
		line := fmt.Sprintf("%s  %-14s %-6s %s", op.Timestamp.Local().Format(time.DateTime), op.Type, status, op.Path)
		if op.Message != "" {
			line += "  (" + op.Message + ")"
		}
		if err := writeOutput(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}
