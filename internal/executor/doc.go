// Package executor drives a full organizing run through the shared pipeline.
//
// Execute resolves the mode's effects policy, then walks the stages in order:
// preflight, hub lock, scan, cached feature extraction across a worker pool,
// classification, routing, and finally the per-file action. ANALYZE touches
// nothing on disk; DRY_RUN adds run artifacts and the feature cache; COPY adds
// placement and sidecars; MOVE additionally records every relocation in the
// audit trail before the next file starts.
//
// Per-file failures are captured as report records and never abort the run.
// Cancellation stops scheduling new files, marks the manifest incomplete, and
// leaves every destination either absent or fully written.
package executor
