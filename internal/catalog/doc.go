// Package catalog models the bucket and category taxonomy a run sorts into.
//
// A Catalog is built once from configuration and validated up front: bucket
// keys are unique, every bucket names an existing category, and renames and
// styles refer to known keys. Lookup maps are case-folded so classification
// and repair agree on matching regardless of how a folder was typed.
package catalog
