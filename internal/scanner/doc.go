// Package scanner discovers sample packs under the inbox.
//
// Each top-level directory becomes a pack; loose files at the inbox root are
// grouped into a synthetic pack without moving anything. Entries matching the
// configured ignore rules are skipped, eligibility is decided per extension
// (full analysis for WAV, name-only routing for the rest), and results are
// sorted so every run sees the same order.
package scanner
