// Package router maps classification results to concrete hub destinations:
// Hub/Category/Bucket/Pack/file. Rename mappings affect only the folder names
// that appear on disk, never the internal bucket keys. Quarantined files and
// results under the hard confidence floor are diverted to reserved trees.
package router

import (
	"fmt"
	"path/filepath"

	"crates/internal/catalog"
	"crates/internal/classify"
	"crates/internal/config"
	"crates/internal/scanner"
	"crates/internal/services"
	"crates/internal/textutil"
)

// Divert labels the reserved tree a file was redirected to, if any.
type Divert string

const (
	DivertNone       Divert = ""
	DivertUnsorted   Divert = catalog.UnsortedKey
	DivertQuarantine Divert = catalog.QuarantineKey
)

// Route is the computed placement for one classified file.
type Route struct {
	// Dest is the absolute destination path.
	Dest string
	// CategoryKey and BucketKey are internal keys ("" when diverted).
	CategoryKey string
	BucketKey   string
	// CategoryFolder, BucketFolder, and PackFolder are the display names
	// used on disk; PackFolder may carry a collision suffix.
	CategoryFolder string
	BucketFolder   string
	PackFolder     string
	Diverted       Divert
}

// Router computes destinations for one run. It tracks pack folder
// assignments so identically named packs under the same bucket get
// deterministic numeric suffixes.
type Router struct {
	cat           *catalog.Catalog
	hub           string
	unsortedFloor float64

	// claimed maps bucketKey -> pack folder name -> owning pack root.
	claimed map[string]map[string]string
}

// New builds a router writing under the hub root.
func New(cat *catalog.Catalog, hub string, scoring config.Scoring) *Router {
	return &Router{
		cat:           cat,
		hub:           hub,
		unsortedFloor: scoring.UnsortedFloor,
		claimed:       make(map[string]map[string]string),
	}
}

// Route computes the destination for a file given its classification.
func (r *Router) Route(pack scanner.SamplePack, file scanner.SampleFile, result classify.Result) (Route, error) {
	packName := textutil.SanitizeFileName(pack.Name)
	if packName == "" {
		packName = "Pack"
	}

	if result.Quarantine {
		return r.diverted(DivertQuarantine, packName, pack, file), nil
	}
	if result.Confidence < r.unsortedFloor {
		return r.diverted(DivertUnsorted, packName, pack, file), nil
	}

	bucket, ok := r.cat.Bucket(result.Bucket)
	if !ok {
		return Route{}, services.Wrap(services.ErrValidation, "router", "route", fmt.Sprintf("classification references undefined bucket %q", result.Bucket), nil)
	}
	category, ok := r.cat.Category(bucket.Category)
	if !ok {
		return Route{}, services.Wrap(services.ErrValidation, "router", "route", fmt.Sprintf("bucket %q references undefined category %q", bucket.Key, bucket.Category), nil)
	}

	packFolder := r.claimPackFolder(bucket.Key, packName, pack.Root)
	dest := filepath.Join(r.hub, category.DisplayName, bucket.DisplayName, packFolder, file.RelPath)
	return Route{
		Dest:           dest,
		CategoryKey:    category.Key,
		BucketKey:      bucket.Key,
		CategoryFolder: category.DisplayName,
		BucketFolder:   bucket.DisplayName,
		PackFolder:     packFolder,
	}, nil
}

func (r *Router) diverted(kind Divert, packName string, pack scanner.SamplePack, file scanner.SampleFile) Route {
	tree := string(kind)
	packFolder := r.claimPackFolder(tree, packName, pack.Root)
	return Route{
		Dest:       filepath.Join(r.hub, tree, packFolder, file.RelPath),
		PackFolder: packFolder,
		Diverted:   kind,
	}
}

// claimPackFolder reserves a folder name for the pack under the given bucket
// (or reserved tree). A name already claimed by a different pack root gets a
// deterministic numeric suffix: Name_2, Name_3, and so on.
func (r *Router) claimPackFolder(scope, packName, packRoot string) string {
	owners := r.claimed[scope]
	if owners == nil {
		owners = make(map[string]string)
		r.claimed[scope] = owners
	}

	candidate := packName
	for suffix := 2; ; suffix++ {
		owner, taken := owners[candidate]
		if !taken {
			owners[candidate] = packRoot
			return candidate
		}
		if owner == packRoot {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", packName, suffix)
	}
}
