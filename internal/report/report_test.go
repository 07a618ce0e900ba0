package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crates/internal/classify"
	"crates/internal/runstore"
)

func sampleRecord(source, status string) FileRecord {
	return FileRecord{
		Source:     source,
		Pack:       "Kit",
		Bucket:     "Kicks",
		Confidence: 0.82,
		Candidates: []classify.Candidate{
			{Bucket: "Kicks", Score: 0.82},
			{Bucket: "808s", Score: 0.4},
			{Bucket: "Snares", Score: 0.1},
		},
		Reasons: []string{"folder_hit:Kicks:kick"},
		Action:  "copy",
		Status:  status,
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-1")
	b := NewBuilder()
	b.Add(sampleRecord("/inbox/Kit/b.wav", "ok"))
	b.Add(sampleRecord("/inbox/Kit/a.wav", "failed"))
	b.Note("pack %s: %d files", "Kit", 2)

	summary := Summary{
		RunID:       "run-1",
		Mode:        "COPY",
		Inbox:       "/inbox",
		Hub:         "/hub",
		StartedAt:   time.Now().Add(-time.Second),
		FinishedAt:  time.Now(),
		FilesTotal:  2,
		FilesFailed: 1,
		Complete:    true,
	}
	if err := b.Write(dir, summary); err != nil {
		t.Fatalf("write: %v", err)
	}

	logData, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(logData)
	if !strings.Contains(text, "run run-1 mode=COPY") {
		t.Fatalf("log missing header: %q", text)
	}
	if !strings.Contains(text, "failed=1") {
		t.Fatalf("log missing footer counts: %q", text)
	}

	reportData, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var payload struct {
		Summary Summary      `json:"summary"`
		Files   []FileRecord `json:"files"`
	}
	if err := json.Unmarshal(reportData, &payload); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if payload.Summary.RunID != "run-1" {
		t.Fatalf("summary run id = %q", payload.Summary.RunID)
	}
	if len(payload.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(payload.Files))
	}
	// Records are sorted by source for deterministic output.
	if payload.Files[0].Source != "/inbox/Kit/a.wav" {
		t.Fatalf("first record = %q, want sorted order", payload.Files[0].Source)
	}
	if len(payload.Files[0].Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(payload.Files[0].Candidates))
	}
}

func TestCounts(t *testing.T) {
	b := NewBuilder()
	b.Add(sampleRecord("/inbox/a.wav", "ok"))
	b.Add(sampleRecord("/inbox/b.wav", "failed"))
	b.Add(sampleRecord("/inbox/c.wav", "skipped_duplicate"))

	if got := b.FailureCount(); got != 1 {
		t.Fatalf("failures = %d, want 1", got)
	}
	if got := b.SkippedCount(); got != 1 {
		t.Fatalf("skipped = %d, want 1", got)
	}
	if got := b.Len(); got != 3 {
		t.Fatalf("len = %d, want 3", got)
	}
}

func TestExportAuditCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-2")
	moved := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	records := []runstore.AuditRecord{
		{RunID: "run-2", Source: "/inbox/a.wav", Dest: "/hub/Samples/Kicks/Kit/a.wav", MovedAt: moved},
		{RunID: "run-2", Source: "/inbox/b.wav", Dest: "/hub/Samples/808s/Kit/b.wav", MovedAt: moved},
	}
	if err := ExportAuditCSV(dir, records); err != nil {
		t.Fatalf("export: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, AuditFileName))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "source" || rows[0][3] != "run_id" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][1] != "/hub/Samples/Kicks/Kit/a.wav" {
		t.Fatalf("row = %v", rows[1])
	}
}
