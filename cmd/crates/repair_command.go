package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crates/internal/hublock"
	"crates/internal/styles"
)

func newRepairCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Reconcile hub folder sidecars against the current catalog",
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
			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}

			lock := hublock.New(cfg.LockPath())
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() {
				_ = lock.Release()
			}()

			summary, err := styles.NewEngine(cat, logger).Repair(cfg.Paths.Hub)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary.Total() == 0 {
				fmt.Fprintln(out, "Sidecars already consistent; nothing to repair.")
				return nil
			}
			rows := [][]string{
				{"Created", fmt.Sprintf("%d", summary.Created)},
				{"Updated", fmt.Sprintf("%d", summary.Updated)},
				{"Removed", fmt.Sprintf("%d", summary.Removed)},
			}
			fmt.Fprintln(out, renderTable([]string{"Repair", ""}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
