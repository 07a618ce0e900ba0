package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"crates/internal/services"
	"crates/internal/undo"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent move run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			outcome, err := undo.New(cfg, logger).UndoLastMove(cmd.Context())
			if errors.Is(err, services.ErrNoEligibleRun) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo: no move run on record.")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Restored", fmt.Sprintf("%d", outcome.Restored)},
				{"Failed", fmt.Sprintf("%d", outcome.Failed)},
				{"Already undone", fmt.Sprintf("%d", outcome.Skipped)},
			}
			fmt.Fprintln(out, renderTable([]string{"Undo " + outcome.RunID, ""}, rows, []columnAlignment{alignLeft, alignRight}))

			for _, rec := range outcome.Records {
				if rec.Status == undo.StatusFailed {
					fmt.Fprintf(out, "failed: %s (%s)\n", rec.Dest, rec.Reason)
				}
			}
			if outcome.Failed > 0 {
				return fmt.Errorf("%d of %d records could not be restored", outcome.Failed, len(outcome.Records))
			}
			return nil
		},
	}
}
