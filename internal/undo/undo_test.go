package undo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"crates/internal/config"
	"crates/internal/executor"
	"crates/internal/services"
	"crates/internal/testsupport"
)

func moveRun(t *testing.T, cfg *config.Config) {
	t.Helper()
	exec, err := executor.New(executor.Options{Config: cfg})
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	outcome, err := exec.Execute(context.Background(), executor.ModeMove)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if outcome.Summary.FilesFailed != 0 {
		t.Fatalf("move failures: %+v", outcome.Records)
	}
}

func seedInbox(t *testing.T, cfg *config.Config) map[string]struct{} {
	t.Helper()
	testsupport.WriteWAV(t, filepath.Join(cfg.Paths.Inbox, "Kicks", "kick_01.wav"), testsupport.Signal{Kind: "kick"})
	testsupport.WriteWAV(t, filepath.Join(cfg.Paths.Inbox, "Kicks", "kick_02.wav"), testsupport.Signal{Kind: "kick"})
	testsupport.WriteWAV(t, filepath.Join(cfg.Paths.Inbox, "Bass Pack", "sub_bass.wav"), testsupport.Signal{Kind: "sine", Freq: 55})
	return testsupport.Snapshot(t, cfg.Paths.Inbox)
}

func TestMoveThenUndoRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerCount(2))
	before := seedInbox(t, cfg)

	moveRun(t, cfg)

	outcome, err := New(cfg, nil).UndoLastMove(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if outcome.Failed != 0 || outcome.Restored != 3 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if after := testsupport.Snapshot(t, cfg.Paths.Inbox); !reflect.DeepEqual(before, after) {
		t.Fatalf("inbox not restored: before=%v after=%v", before, after)
	}
}

func TestUndoWithNoRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := New(cfg, nil).UndoLastMove(context.Background())
	if !errors.Is(err, services.ErrNoEligibleRun) {
		t.Fatalf("err = %v, want ErrNoEligibleRun", err)
	}
}

func TestModifiedDestinationFailsSingleRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerCount(1))
	seedInbox(t, cfg)
	moveRun(t, cfg)

	// Touch one placed file so its identity no longer matches the trail.
	tampered := filepath.Join(cfg.Paths.Hub, "Samples", "Kicks", "Kicks", "kick_01.wav")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(tampered, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	outcome, err := New(cfg, nil).UndoLastMove(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if outcome.Failed != 1 || outcome.Restored != 2 {
		t.Fatalf("outcome = %+v", outcome)
	}
	for _, rec := range outcome.Records {
		if rec.Dest == tampered {
			if rec.Status != StatusFailed {
				t.Fatalf("tampered record status = %q", rec.Status)
			}
		} else if rec.Status != StatusRestored {
			t.Fatalf("record %s status = %q, want restored", rec.Dest, rec.Status)
		}
	}
	// The tampered file is left in place, never deleted.
	if _, err := os.Stat(tampered); err != nil {
		t.Fatalf("tampered file removed: %v", err)
	}
}

func TestSecondUndoReportsAlreadyUndone(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerCount(1))
	seedInbox(t, cfg)
	moveRun(t, cfg)

	if _, err := New(cfg, nil).UndoLastMove(context.Background()); err != nil {
		t.Fatalf("first undo: %v", err)
	}
	outcome, err := New(cfg, nil).UndoLastMove(context.Background())
	if err != nil {
		t.Fatalf("second undo: %v", err)
	}
	if outcome.Restored != 0 || outcome.Failed != 0 {
		t.Fatalf("second undo outcome = %+v", outcome)
	}
	if outcome.Skipped != len(outcome.Records) {
		t.Fatalf("skipped = %d of %d records", outcome.Skipped, len(outcome.Records))
	}
	for _, rec := range outcome.Records {
		if rec.Status != StatusAlreadyUndone {
			t.Fatalf("record %s status = %q", rec.Dest, rec.Status)
		}
	}
}

func TestUndoNeverClobbersReappearedSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerCount(1))
	testsupport.WriteWAV(t, filepath.Join(cfg.Paths.Inbox, "Kicks", "kick_01.wav"), testsupport.Signal{Kind: "kick"})
	moveRun(t, cfg)

	// Someone drops a new file at the old source path.
	reborn := filepath.Join(cfg.Paths.Inbox, "Kicks", "kick_01.wav")
	testsupport.WriteFile(t, reborn, 10)

	outcome, err := New(cfg, nil).UndoLastMove(context.Background())
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if outcome.Failed != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
	info, err := os.Stat(reborn)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 10 {
		t.Fatal("undo overwrote the unrelated source file")
	}
}
