// Package services defines the shared error taxonomy and context annotations
// used across the classification and mutation engine. Per-file failures are
// tagged with sentinel markers so the executor can aggregate them into the
// run report without unwinding past a single file's boundary.
package services
