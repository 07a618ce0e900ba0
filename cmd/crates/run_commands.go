package main

import (
	"fmt"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"crates/internal/executor"
	"crates/internal/report"
)

func newRunCommands(ctx *commandContext) []*cobra.Command {
	specs := []struct {
		use   string
		short string
		mode  executor.Mode
	}{
		{"analyze", "Inspect and classify the inbox without writing anything", executor.ModeAnalyze},
		{"dry-run", "Classify and report without touching any sample file", executor.ModeDryRun},
		{"copy", "Copy classified samples into the hub, leaving sources in place", executor.ModeCopy},
		{"move", "Move classified samples into the hub with an undoable audit trail", executor.ModeMove},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		mode := spec.mode
		cmds = append(cmds, &cobra.Command{
			Use:   spec.use,
			Short: spec.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPipeline(cmd, ctx, mode)
			},
		})
	}
	return cmds
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, mode executor.Mode) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	var progress func(done, total int)
	if mode.Mutates() && isTerminal() {
		var once sync.Once
		var bar *progressbar.ProgressBar
		progress = func(done, total int) {
			once.Do(func() {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription(string(mode)),
					progressbar.OptionClearOnFinish(),
				)
			})
			_ = bar.Set(done)
		}
	}

	exec, err := executor.New(executor.Options{Config: cfg, Logger: logger, Progress: progress})
	if err != nil {
		return err
	}
	outcome, err := exec.Execute(cmd.Context(), mode)
	if err != nil {
		return err
	}

	printSummary(cmd, outcome)
	if outcome.Summary.FilesFailed > 0 {
		return fmt.Errorf("%d of %d files failed; see the run report", outcome.Summary.FilesFailed, outcome.Summary.FilesTotal)
	}
	return nil
}

func printSummary(cmd *cobra.Command, outcome *executor.Outcome) {
	out := cmd.OutOrStdout()
	s := outcome.Summary

	rows := [][]string{
		{"Mode", s.Mode},
		{"Files", fmt.Sprintf("%d", s.FilesTotal)},
		{"Failed", fmt.Sprintf("%d", s.FilesFailed)},
		{"Skipped duplicates", fmt.Sprintf("%d", s.Skipped)},
		{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(timeRounding).String()},
	}
	if outcome.RunDir != "" {
		rows = append(rows, []string{"Artifacts", outcome.RunDir})
	}
	if !s.Complete {
		rows = append(rows, []string{"Status", "incomplete (cancelled)"})
	}
	fmt.Fprintln(out, renderTable([]string{"Run " + s.RunID, ""}, rows, []columnAlignment{alignLeft, alignLeft}))

	if buckets := bucketCounts(outcome.Records); len(buckets) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Bucket", "Files"}, buckets, []columnAlignment{alignLeft, alignRight}))
	}
}

func bucketCounts(records []report.FileRecord) [][]string {
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		if _, seen := counts[rec.Bucket]; !seen {
			order = append(order, rec.Bucket)
		}
		counts[rec.Bucket]++
	}
	rows := make([][]string, 0, len(order))
	for _, bucket := range order {
		rows = append(rows, []string{bucket, fmt.Sprintf("%d", counts[bucket])})
	}
	return rows
}
