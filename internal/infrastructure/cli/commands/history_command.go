package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/askpage-go/internal/app"
	"github.com/doeshing/askpage-go/internal/application/history"
)

// NewHistoryCommand creates the history command with all subcommands
func NewHistoryCommand(container *app.Container) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the prompt history",
	}

	historyCmd.AddCommand(
		newHistoryListCommand(container),
		newHistoryClearCommand(container),
	)

	return historyCmd
}

func newHistoryListCommand(container *app.Container) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded questions, newest last",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := history.Load(cmd.Context(), container.Store)
			if err != nil {
				return err
			}
			return listHistoryEntries(cmd.OutOrStdout(), h.All(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max entries to show (0 shows all)")
	return cmd
}

func newHistoryClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the prompt history",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := history.Load(cmd.Context(), container.Store)
			if err != nil {
				return err
			}
			if err := h.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), MsgHistoryCleared)
			return nil
		},
	}
}

func listHistoryEntries(out io.Writer, entries []string, limit int) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoHistoryRecorded)
		return nil
	}
	start := 0
	if limit > 0 && len(entries) > limit {
		start = len(entries) - limit
	}
	for i := start; i < len(entries); i++ {
		fmt.Fprintf(out, "%3d  %s\n", i+1, entries[i])
	}
	return nil
}
