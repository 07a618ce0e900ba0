package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"crates/internal/services"
	"crates/internal/wavform"
)

// Run statuses.
const (
	RunStatusRunning    = "running"
	RunStatusCompleted  = "completed"
	RunStatusIncomplete = "incomplete"
)

// Per-record undo statuses. Empty means the record has not been undone.
const (
	UndoStatusNone   = ""
	UndoStatusUndone = "undone"
	UndoStatusFailed = "failed"
)

// Run is one manifest row.
type Run struct {
	ID          string
	Mode        string
	Status      string
	Inbox       string
	Hub         string
	StartedAt   time.Time
	FinishedAt  *time.Time
	FilesTotal  int
	FilesFailed int
}

// AuditRecord is one relocated file within a MOVE run. Size and ModTimeNano
// capture the identity key at move time so undo can verify the destination
// has not been altered since.
type AuditRecord struct {
	ID          int64
	RunID       string
	Source      string
	Dest        string
	Size        int64
	ModTimeNano int64
	MovedAt     time.Time
	UndoStatus  string
	UndoReason  string
	UndoneAt    *time.Time
}

// Identity reconstructs the identity key recorded at move time, keyed on the
// destination path.
func (r AuditRecord) Identity() wavform.Identity {
	return wavform.Identity{Path: r.Dest, Size: r.Size, ModTime: r.ModTimeNano}
}

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a new manifest in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, mode, status, inbox, hub, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, RunStatusRunning, run.Inbox, run.Hub, run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun closes a manifest with its final status and counts.
func (s *Store) FinishRun(ctx context.Context, runID, status string, filesTotal, filesFailed int) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, files_total = ?, files_failed = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339Nano), filesTotal, filesFailed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}

// AppendAudit appends one relocation to a run's trail and returns its id.
// The append commits before the caller considers the move recorded, so a
// cancelled run never holds an audit row for an uncommitted relocation.
func (s *Store) AppendAudit(ctx context.Context, rec AuditRecord) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audit_records (run_id, source, dest, size, mtime_ns, moved_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Source, rec.Dest, rec.Size, rec.ModTimeNano, rec.MovedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("append audit record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("audit record id: %w", err)
	}
	return id, nil
}

// AuditForRun returns a run's trail in insertion order.
func (s *Store) AuditForRun(ctx context.Context, runID string) ([]AuditRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, source, dest, size, mtime_ns, moved_at, undo_status, undo_reason, undone_at
         FROM audit_records WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		rec, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkUndo records the undo outcome for one audit record.
func (s *Store) MarkUndo(ctx context.Context, recordID int64, status, reason string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE audit_records SET undo_status = ?, undo_reason = ?, undone_at = ? WHERE id = ?`,
		status, reason, time.Now().UTC().Format(time.RFC3339Nano), recordID,
	)
	if err != nil {
		return fmt.Errorf("mark undo: %w", err)
	}
	return nil
}

// LatestMoveRun returns the most recent MOVE run that finished (completed or
// incomplete both qualify; an incomplete trail is still undoable). No
// qualifying run yields services.ErrNoEligibleRun.
func (s *Store) LatestMoveRun(ctx context.Context, mode string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, mode, status, inbox, hub, started_at, finished_at, files_total, files_failed
         FROM runs WHERE mode = ? AND status != ? ORDER BY started_at DESC LIMIT 1`,
		mode, RunStatusRunning,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNoEligibleRun, "runstore", "latest", fmt.Sprintf("no finished %s run on record", mode), nil)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun fetches one manifest by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, mode, status, inbox, hub, started_at, finished_at, files_total, files_failed
         FROM runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNoEligibleRun, "runstore", "get", fmt.Sprintf("run %q not found", runID), nil)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit manifests, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, mode, status, inbox, hub, started_at, finished_at, files_total, files_failed
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started string
	var finished sql.NullString
	err := row.Scan(&run.ID, &run.Mode, &run.Status, &run.Inbox, &run.Hub, &started, &finished, &run.FilesTotal, &run.FilesFailed)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finished.Valid {
		ts, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &ts
	}
	return run, nil
}

func scanAudit(row rowScanner) (AuditRecord, error) {
	var rec AuditRecord
	var moved string
	var undone sql.NullString
	err := row.Scan(&rec.ID, &rec.RunID, &rec.Source, &rec.Dest, &rec.Size, &rec.ModTimeNano, &moved, &rec.UndoStatus, &rec.UndoReason, &undone)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("scan audit record: %w", err)
	}
	rec.MovedAt, err = time.Parse(time.RFC3339Nano, moved)
	if err != nil {
		return AuditRecord{}, fmt.Errorf("parse moved_at: %w", err)
	}
	if undone.Valid {
		ts, err := time.Parse(time.RFC3339Nano, undone.String)
		if err != nil {
			return AuditRecord{}, fmt.Errorf("parse undone_at: %w", err)
		}
		rec.UndoneAt = &ts
	}
	return rec, nil
}
