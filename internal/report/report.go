// Package report produces the per-run artifacts: the human-readable
// run_log.txt narration, the structured run_report.json, and the audit.csv
// export for MOVE runs. Artifacts live under hub/logs/<run_id>/.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"crates/internal/classify"
	"crates/internal/runstore"
	"crates/internal/services"
)

// Artifact file names within a run directory.
const (
	LogFileName    = "run_log.txt"
	ReportFileName = "run_report.json"
	AuditFileName  = "audit.csv"
)

// FileRecord is one line of the structured report.
type FileRecord struct {
	Source        string               `json:"source"`
	Pack          string               `json:"pack"`
	Bucket        string               `json:"bucket"`
	Confidence    float64              `json:"confidence"`
	Candidates    []classify.Candidate `json:"top_3_candidates"`
	Reasons       []string             `json:"reasons"`
	LowConfidence bool                 `json:"low_confidence"`
	Quarantine    bool                 `json:"quarantine"`
	Action        string               `json:"action"`
	Status        string               `json:"status"`
	Dest          string               `json:"dest,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// Summary aggregates the run for the report header and exit status.
type Summary struct {
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	Inbox       string    `json:"inbox"`
	Hub         string    `json:"hub"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	FilesTotal  int       `json:"files_total"`
	FilesFailed int       `json:"files_failed"`
	Skipped     int       `json:"skipped_duplicates"`
	Complete    bool      `json:"complete"`
}

type runReport struct {
	Summary Summary      `json:"summary"`
	Files   []FileRecord `json:"files"`
}

// Builder collects records and narration during a run and writes the
// artifacts at the end. Safe for concurrent use by executor workers.
type Builder struct {
	mu      sync.Mutex
	records []FileRecord
	lines   []string
}

// NewBuilder returns an empty report builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a file record and its narration line.
func (b *Builder) Add(rec FileRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, rec)
	b.lines = append(b.lines, narrate(rec))
}

// Note appends a free-form narration line.
func (b *Builder) Note(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, fmt.Sprintf(format, args...))
}

// Records returns a copy of the collected records sorted by source path.
func (b *Builder) Records() []FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]FileRecord, len(b.records))
	copy(out, b.records)
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// FailureCount returns how many records carry a failed status.
func (b *Builder) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, rec := range b.records {
		if rec.Status == "failed" {
			count++
		}
	}
	return count
}

// SkippedCount returns how many records were idempotent no-ops.
func (b *Builder) SkippedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, rec := range b.records {
		if rec.Status == "skipped_duplicate" {
			count++
		}
	}
	return count
}

// Len returns the number of file records collected.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Write emits run_log.txt and run_report.json into dir.
func (b *Builder) Write(dir string, summary Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrFileSystem, "report", "write", fmt.Sprintf("create run directory %q", dir), err)
	}

	b.mu.Lock()
	lines := make([]string, len(b.lines))
	copy(lines, b.lines)
	b.mu.Unlock()

	header := fmt.Sprintf("run %s mode=%s inbox=%s hub=%s", summary.RunID, summary.Mode, summary.Inbox, summary.Hub)
	footer := fmt.Sprintf("done files=%d failed=%d skipped=%d complete=%t",
		summary.FilesTotal, summary.FilesFailed, summary.Skipped, summary.Complete)
	body := header + "\n" + strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	body += footer + "\n"
	logPath := filepath.Join(dir, LogFileName)
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		return services.Wrap(services.ErrFileSystem, "report", "write", fmt.Sprintf("write %q", logPath), err)
	}

	payload := runReport{Summary: summary, Files: b.Records()}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	reportPath := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(reportPath, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrFileSystem, "report", "write", fmt.Sprintf("write %q", reportPath), err)
	}
	return nil
}

// ExportAuditCSV writes the audit trail export for a MOVE run. Columns
// follow the external contract: source, destination, timestamp, run id.
func ExportAuditCSV(dir string, records []runstore.AuditRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrFileSystem, "report", "audit", fmt.Sprintf("create run directory %q", dir), err)
	}
	path := filepath.Join(dir, AuditFileName)
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrFileSystem, "report", "audit", fmt.Sprintf("create %q", path), err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"source", "destination", "timestamp", "run_id"}); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}
	for _, rec := range records {
		row := []string{rec.Source, rec.Dest, rec.MovedAt.UTC().Format(time.RFC3339Nano), rec.RunID}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write audit row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush audit csv: %w", err)
	}
	return file.Close()
}

func narrate(rec FileRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -> %s (%.2f)", rec.Source, rec.Bucket, rec.Confidence)
	if rec.Quarantine {
		sb.WriteString(" quarantine")
	} else if rec.LowConfidence {
		sb.WriteString(" low-confidence")
	}
	fmt.Fprintf(&sb, " [%s", rec.Action)
	if rec.Status != "" && rec.Status != "ok" {
		fmt.Fprintf(&sb, ": %s", rec.Status)
	}
	sb.WriteString("]")
	if rec.Error != "" {
		fmt.Fprintf(&sb, " error=%s", rec.Error)
	}
	return sb.String()
}
