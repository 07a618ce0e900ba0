// Command crates classifies audio sample packs from an inbox and sorts them
// into a styled hub library. Runs come in four modes (analyze, dry-run, copy,
// move); move runs are undoable and every run leaves a report.
package main
