// Package styles writes and reconciles the .nfo sidecars that color the hub.
// Sidecars attach to category, bucket, and pack folders only, never to
// individual sample files, and their byte layout is an external contract.
//
// The Engine resolves a folder's style through a fixed chain (exact bucket
// key, case-insensitive bucket name, category style, neutral default) and
// warns once per missing key. Sidecar writes are byte-idempotent: an existing
// file with identical contents is left untouched, so repeated runs do not
// churn mtimes.
//
// Repair rebuilds the desired sidecar set from the live catalog over the
// on-disk tree and creates, rewrites, or removes sidecars until the hub
// matches. Audio files are never touched.
package styles
