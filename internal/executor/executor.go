package executor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crates/internal/catalog"
	"crates/internal/classify"
	"crates/internal/config"
	"crates/internal/featcache"
	"crates/internal/fileutil"
	"crates/internal/hublock"
	"crates/internal/logging"
	"crates/internal/preflight"
	"crates/internal/report"
	"crates/internal/router"
	"crates/internal/runstore"
	"crates/internal/scanner"
	"crates/internal/services"
	"crates/internal/styles"
	"crates/internal/wavform"
)

// Mode selects the run's side-effect policy.
type Mode string

const (
	ModeAnalyze Mode = "ANALYZE"
	ModeDryRun  Mode = "DRY_RUN"
	ModeCopy    Mode = "COPY"
	ModeMove    Mode = "MOVE"
)

// Mutates reports whether the mode touches the hub file tree.
func (m Mode) Mutates() bool {
	return m == ModeCopy || m == ModeMove
}

// WritesArtifacts reports whether the mode produces run artifacts, cache
// updates, and a manifest. ANALYZE alone writes nothing at all.
func (m Mode) WritesArtifacts() bool {
	return m != ModeAnalyze
}

// File action statuses used in report records.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped_duplicate"
)

// Options configures an executor.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Progress, when set, is invoked after each processed file.
	Progress func(done, total int)
}

// Executor runs the pipeline over one inbox/hub pair.
type Executor struct {
	cfg      *config.Config
	logger   *slog.Logger
	cat      *catalog.Catalog
	progress func(done, total int)

	mu       sync.Mutex
	destLock map[string]*sync.Mutex
}

// Outcome summarizes a finished run.
type Outcome struct {
	Summary report.Summary
	Records []report.FileRecord
	// RunDir is the artifact directory, empty for ANALYZE.
	RunDir string
}

// New builds an executor from validated configuration.
func New(opts Options) (*Executor, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrValidation, "executor", "new", "config is required", nil)
	}
	cat, err := opts.Config.Catalog()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		cfg:      opts.Config,
		logger:   logger,
		cat:      cat,
		progress: opts.Progress,
		destLock: make(map[string]*sync.Mutex),
	}, nil
}

// plan is one file with its classification and destination resolved.
type plan struct {
	pack   scanner.SamplePack
	file   scanner.SampleFile
	result classify.Result
	route  router.Route
}

// Execute runs one full pipeline pass in the given mode.
func (e *Executor) Execute(ctx context.Context, mode Mode) (*Outcome, error) {
	if failures := preflight.Failed(preflight.RunAll(e.cfg, mode.WritesArtifacts(), mode.Mutates())); len(failures) > 0 {
		details := make([]string, 0, len(failures))
		for _, f := range failures {
			details = append(details, fmt.Sprintf("%s: %s", f.Name, f.Detail))
		}
		return nil, services.Wrap(services.ErrValidation, "executor", "preflight", strings.Join(details, "; "), nil)
	}

	runID := uuid.NewString()
	logger := e.logger.With(logging.FieldRunID, runID, logging.FieldComponent, "executor")
	started := time.Now()

	// ANALYZE holds no lock and creates no files, the other modes are
	// exclusive over the hub.
	if mode.WritesArtifacts() {
		lock := hublock.New(e.cfg.LockPath())
		if err := lock.Acquire(); err != nil {
			return nil, err
		}
		defer func() {
			_ = lock.Release()
		}()
	}

	packs, err := scanner.New(e.cfg).Scan(e.cfg.Paths.Inbox)
	if err != nil {
		return nil, err
	}

	cache, err := featcache.Open(e.cfg.CachePath(), logger)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, pack := range packs {
		total += len(pack.Files)
	}
	logger.Info("run started", "mode", string(mode), "packs", len(packs), "files", total)

	plans, builder := e.classifyAll(ctx, packs, cache)

	var store *runstore.Store
	var runDir string
	if mode.WritesArtifacts() {
		store, err = runstore.Open(e.cfg.RunStorePath())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if err := store.BeginRun(ctx, runstore.Run{
			ID:        runID,
			Mode:      string(mode),
			Inbox:     e.cfg.Paths.Inbox,
			Hub:       e.cfg.Paths.Hub,
			StartedAt: started,
		}); err != nil {
			return nil, err
		}
		runDir = filepath.Join(e.cfg.LogDir(), runID)
	}

	styleEngine := styles.NewEngine(e.cat, logger)
	complete := e.act(ctx, mode, runID, plans, builder, store, styleEngine)

	if mode.WritesArtifacts() {
		if err := cache.Flush(); err != nil {
			logger.Warn("feature cache flush failed", logging.Error(err))
		}
	}

	summary := report.Summary{
		RunID:       runID,
		Mode:        string(mode),
		Inbox:       e.cfg.Paths.Inbox,
		Hub:         e.cfg.Paths.Hub,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		FilesTotal:  builder.Len(),
		FilesFailed: builder.FailureCount(),
		Skipped:     builder.SkippedCount(),
		Complete:    complete,
	}

	if mode.WritesArtifacts() {
		status := runstore.RunStatusCompleted
		if !complete {
			status = runstore.RunStatusIncomplete
		}
		if err := store.FinishRun(ctx, runID, status, summary.FilesTotal, summary.FilesFailed); err != nil {
			logger.Warn("finish run manifest failed", logging.Error(err))
		}
		if err := builder.Write(runDir, summary); err != nil {
			return nil, err
		}
		if mode == ModeMove {
			records, err := store.AuditForRun(ctx, runID)
			if err != nil {
				return nil, err
			}
			if err := report.ExportAuditCSV(runDir, records); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("run finished",
		"mode", string(mode),
		"files", summary.FilesTotal,
		"failed", summary.FilesFailed,
		"skipped", summary.Skipped,
		"complete", complete)
	return &Outcome{Summary: summary, Records: builder.Records(), RunDir: runDir}, nil
}

// classifyAll extracts descriptors with a worker pool and classifies every
// file. Classification itself is pure, so only extraction is parallelized.
func (e *Executor) classifyAll(ctx context.Context, packs []scanner.SamplePack, cache *featcache.Store) ([]plan, *report.Builder) {
	builder := report.NewBuilder()
	classifier := classify.New(e.cat, e.cfg.Scoring)
	rt := router.New(e.cat, e.cfg.Paths.Hub, e.cfg.Scoring)

	type job struct {
		packIdx, fileIdx int
	}
	type extracted struct {
		descriptor   *wavform.Descriptor
		decodeFailed bool
	}

	jobs := make(chan job)
	results := make(map[job]extracted)
	var resultsMu sync.Mutex

	workers := e.cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				file := packs[jb.packIdx].Files[jb.fileIdx]
				var ex extracted
				id, err := wavform.IdentityFor(file.Path)
				if err == nil {
					descriptor, _, computeErr := cache.GetOrCompute(id, func() (wavform.Descriptor, error) {
						return wavform.Extract(file.Path)
					})
					if computeErr != nil {
						ex.decodeFailed = true
					} else {
						ex.descriptor = &descriptor
					}
				} else {
					ex.decodeFailed = true
				}
				resultsMu.Lock()
				results[jb] = ex
				resultsMu.Unlock()
			}
		}()
	}

	for pi, pack := range packs {
		for fi, file := range pack.Files {
			if file.Eligibility != scanner.EligibilityAnalyze {
				continue
			}
			select {
			case jobs <- job{packIdx: pi, fileIdx: fi}:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
	}
	close(jobs)
	wg.Wait()

	var plans []plan
	for pi, pack := range packs {
		for fi, file := range pack.Files {
			ex := results[job{packIdx: pi, fileIdx: fi}]
			in := classify.Input{
				File:         file,
				FolderName:   filepath.Base(filepath.Dir(file.Path)),
				Descriptor:   ex.descriptor,
				DecodeFailed: ex.decodeFailed,
			}
			result := classifier.Classify(in)
			route, err := rt.Route(pack, file, result)
			if err != nil {
				builder.Add(report.FileRecord{
					Source:     file.Path,
					Pack:       pack.Name,
					Bucket:     result.Bucket,
					Confidence: result.Confidence,
					Candidates: result.Candidates,
					Reasons:    result.Reasons,
					Action:     "route",
					Status:     StatusFailed,
					Error:      err.Error(),
				})
				continue
			}
			plans = append(plans, plan{pack: pack, file: file, result: result, route: route})
		}
	}
	return plans, builder
}

// act applies the mode's side effects to every plan. It reports whether the
// run ran to completion (false when cancelled mid-way).
func (e *Executor) act(ctx context.Context, mode Mode, runID string, plans []plan, builder *report.Builder, store *runstore.Store, styleEngine *styles.Engine) bool {
	workers := e.cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}

	var done int
	var doneMu sync.Mutex
	step := func() {
		if e.progress == nil {
			return
		}
		doneMu.Lock()
		done++
		current := done
		doneMu.Unlock()
		e.progress(current, len(plans))
	}

	complete := true
	var completeMu sync.Mutex
	markIncomplete := func() {
		completeMu.Lock()
		complete = false
		completeMu.Unlock()
	}

	jobs := make(chan plan)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pl := range jobs {
				if ctx.Err() != nil {
					markIncomplete()
					continue
				}
				builder.Add(e.actOne(ctx, mode, runID, pl, store, styleEngine))
				step()
			}
		}()
	}
	for _, pl := range plans {
		jobs <- pl
	}
	close(jobs)
	wg.Wait()
	return complete
}

func (e *Executor) actOne(ctx context.Context, mode Mode, runID string, pl plan, store *runstore.Store, styleEngine *styles.Engine) report.FileRecord {
	rec := report.FileRecord{
		Source:        pl.file.Path,
		Pack:          pl.pack.Name,
		Bucket:        pl.result.Bucket,
		Confidence:    pl.result.Confidence,
		Candidates:    pl.result.Candidates,
		Reasons:       pl.result.Reasons,
		LowConfidence: pl.result.LowConfidence,
		Quarantine:    pl.result.Quarantine,
		Dest:          pl.route.Dest,
		Status:        StatusOK,
	}
	if pl.route.Diverted != router.DivertNone {
		rec.Bucket = string(pl.route.Diverted)
	}

	switch mode {
	case ModeAnalyze, ModeDryRun:
		rec.Action = "plan"
		return rec
	case ModeCopy:
		rec.Action = "copy"
	case ModeMove:
		rec.Action = "move"
	}

	lock := e.destMutex(pl.route.Dest)
	lock.Lock()
	defer lock.Unlock()

	sourceID, err := wavform.IdentityFor(pl.file.Path)
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	if destID, err := wavform.IdentityFor(pl.route.Dest); err == nil {
		if destID.Size == sourceID.Size && destID.ModTime == sourceID.ModTime {
			rec.Status = StatusSkipped
			return rec
		}
		rec.Status = StatusFailed
		rec.Error = fmt.Sprintf("destination %q exists with different content", pl.route.Dest)
		return rec
	}

	if mode == ModeCopy {
		if err := fileutil.CopySample(pl.file.Path, pl.route.Dest); err != nil {
			rec.Status = StatusFailed
			rec.Error = err.Error()
			return rec
		}
	} else {
		if err := fileutil.MoveSample(pl.file.Path, pl.route.Dest); err != nil {
			rec.Status = StatusFailed
			rec.Error = err.Error()
			return rec
		}
		if _, err := store.AppendAudit(ctx, runstore.AuditRecord{
			RunID:       runID,
			Source:      pl.file.Path,
			Dest:        pl.route.Dest,
			Size:        sourceID.Size,
			ModTimeNano: sourceID.ModTime,
			MovedAt:     time.Now(),
		}); err != nil {
			// The file moved but the trail missed it; surface loudly since
			// undo cannot restore an unrecorded relocation.
			rec.Status = StatusFailed
			rec.Error = fmt.Sprintf("moved but not recorded in audit trail: %v", err)
			return rec
		}
	}

	if err := styleEngine.EnsureRoute(e.cfg.Paths.Hub, pl.route); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	}
	return rec
}

func (e *Executor) destMutex(dest string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.destLock[dest]
	if !ok {
		lock = &sync.Mutex{}
		e.destLock[dest] = lock
	}
	return lock
}
