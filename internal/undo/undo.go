// Package undo reverses the most recent MOVE run by replaying its audit
// trail backwards. Each record's destination is verified against the
// identity captured at move time before it is relocated back; a mismatch
// fails that record alone. A trail is single-use: records already undone
// report an explicit status instead of being replayed.
package undo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"crates/internal/config"
	"crates/internal/fileutil"
	"crates/internal/hublock"
	"crates/internal/logging"
	"crates/internal/runstore"
	"crates/internal/services"
)

// Per-record outcome statuses.
const (
	StatusRestored      = "restored"
	StatusFailed        = "failed"
	StatusAlreadyUndone = "already_undone"
)

// RecordOutcome reports one audit record's undo result.
type RecordOutcome struct {
	Source string `json:"source"`
	Dest   string `json:"dest"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Outcome summarizes an undo invocation.
type Outcome struct {
	RunID    string          `json:"run_id"`
	Records  []RecordOutcome `json:"records"`
	Restored int             `json:"restored"`
	Failed   int             `json:"failed"`
	Skipped  int             `json:"already_undone"`
}

// Engine replays audit trails in reverse.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds an undo engine.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{cfg: cfg, logger: logging.NewComponentLogger(logger, "undo")}
}

// UndoLastMove restores the most recent MOVE run. Records are processed in
// reverse chronological order; a single failure never blocks the remaining
// records. No eligible run yields services.ErrNoEligibleRun.
func (e *Engine) UndoLastMove(ctx context.Context) (*Outcome, error) {
	lock := hublock.New(e.cfg.LockPath())
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() {
		_ = lock.Release()
	}()

	store, err := runstore.Open(e.cfg.RunStorePath())
	if err != nil {
		return nil, err
	}
	defer store.Close()

	run, err := store.LatestMoveRun(ctx, "MOVE")
	if err != nil {
		return nil, err
	}
	records, err := store.AuditForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrNoEligibleRun, "undo", "replay", fmt.Sprintf("run %s has an empty audit trail", run.ID), nil)
	}

	outcome := &Outcome{RunID: run.ID}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		result := e.undoRecord(ctx, store, rec)
		outcome.Records = append(outcome.Records, result)
		switch result.Status {
		case StatusRestored:
			outcome.Restored++
		case StatusFailed:
			outcome.Failed++
		case StatusAlreadyUndone:
			outcome.Skipped++
		}
	}

	e.logger.Info("undo finished",
		logging.FieldRunID, run.ID,
		"restored", outcome.Restored,
		"failed", outcome.Failed,
		"already_undone", outcome.Skipped)
	return outcome, nil
}

func (e *Engine) undoRecord(ctx context.Context, store *runstore.Store, rec runstore.AuditRecord) RecordOutcome {
	out := RecordOutcome{Source: rec.Source, Dest: rec.Dest}

	if rec.UndoStatus != runstore.UndoStatusNone {
		out.Status = StatusAlreadyUndone
		out.Reason = fmt.Sprintf("record undo already recorded as %s", rec.UndoStatus)
		return out
	}

	fail := func(reason string, markErr error) RecordOutcome {
		out.Status = StatusFailed
		out.Reason = reason
		if markErr != nil {
			e.logger.Warn("record undo status not persisted", logging.Error(markErr))
		}
		return out
	}

	if !rec.Identity().Matches() {
		reason := "destination modified or removed since move"
		if _, statErr := os.Stat(rec.Dest); os.IsNotExist(statErr) {
			reason = "destination no longer exists"
		}
		wrapped := services.Wrap(services.ErrUndoMismatch, "undo", "verify", reason, nil)
		return fail(wrapped.Error(), store.MarkUndo(ctx, rec.ID, runstore.UndoStatusFailed, reason))
	}

	// Never clobber content that reappeared at the original source.
	if _, err := os.Stat(rec.Source); err == nil {
		reason := "source path occupied by another file"
		return fail(reason, store.MarkUndo(ctx, rec.ID, runstore.UndoStatusFailed, reason))
	}

	if err := fileutil.MoveSample(rec.Dest, rec.Source); err != nil {
		reason := fmt.Sprintf("restore failed: %v", err)
		return fail(reason, store.MarkUndo(ctx, rec.ID, runstore.UndoStatusFailed, reason))
	}
	// Drop hub folders the move emptied, but leave anything non-empty alone.
	if err := fileutil.RemoveEmptyParents(filepath.Dir(rec.Dest), e.cfg.Paths.Hub); err != nil {
		e.logger.Warn("cleanup of emptied hub folders failed", logging.Error(err))
	}

	if err := store.MarkUndo(ctx, rec.ID, runstore.UndoStatusUndone, ""); err != nil {
		e.logger.Warn("record undo status not persisted", logging.Error(err))
	}
	out.Status = StatusRestored
	return out
}
