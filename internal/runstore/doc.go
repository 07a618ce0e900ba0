// Package runstore persists run manifests and the audit trail in SQLite.
//
// The Store opens a WAL-mode database under the hub, applies embedded SQL
// migrations, and exposes the run lifecycle (BeginRun, FinishRun) alongside
// append-only audit records for MOVE runs. Audit rows are never rewritten;
// undo outcomes are recorded as status updates so a trail stays replayable
// and a second undo can report what already happened.
//
// The database is the canonical history. The audit.csv written into a run's
// log directory is an export for humans, not an input.
package runstore
