package catalog

import (
	"fmt"
	"sort"
	"strings"

	"crates/internal/services"
	"crates/internal/wavform"
)

// Reserved hub trees that are not buckets.
const (
	UnsortedKey   = "UNSORTED"
	QuarantineKey = "Quarantine"
)

// Style carries the folder browser presentation for a category, bucket, or
// pack folder.
type Style struct {
	Color     string `toml:"color" json:"color"`
	IconIndex int    `toml:"icon_index" json:"icon_index"`
	SortGroup int    `toml:"sort_group" json:"sort_group"`
}

// Bucket is the finest classification unit a file can be assigned to.
type Bucket struct {
	// Key is the internal identifier used for scoring, caching, and style
	// lookup. Renames never touch it.
	Key string
	// DisplayName is the hub folder name; defaults to Key, overridden by
	// the rename mapping.
	DisplayName string
	// Category is the parent category key.
	Category string
	// Keywords is the vocabulary matched against folder and file names.
	Keywords []string
	// Priority orders tie-breaks; lower wins. Buckets sharing a priority
	// fall back to alphabetical key order.
	Priority int
	// Profile is the reference descriptor for audio-signal scoring; nil
	// disables the audio signal for this bucket.
	Profile *wavform.Descriptor
	// Style is the folder style; nil falls through the resolution chain.
	Style *Style
}

// Category groups one or more buckets.
type Category struct {
	Key         string
	DisplayName string
	Style       *Style
}

// Catalog indexes buckets and categories for classification and routing.
type Catalog struct {
	buckets    map[string]Bucket
	categories map[string]Category
	ordered    []string
}

// New validates definitions and builds an indexed catalog. Every bucket must
// reference a defined category; keys must be unique and must not collide with
// the reserved UNSORTED and Quarantine trees.
func New(buckets []Bucket, categories []Category) (*Catalog, error) {
	c := &Catalog{
		buckets:    make(map[string]Bucket, len(buckets)),
		categories: make(map[string]Category, len(categories)),
	}

	for _, cat := range categories {
		key := strings.TrimSpace(cat.Key)
		if key == "" {
			return nil, services.Wrap(services.ErrValidation, "catalog", "category", "empty category key", nil)
		}
		if _, dup := c.categories[key]; dup {
			return nil, services.Wrap(services.ErrValidation, "catalog", "category", fmt.Sprintf("duplicate category %q", key), nil)
		}
		if cat.DisplayName == "" {
			cat.DisplayName = key
		}
		cat.Key = key
		c.categories[key] = cat
	}

	for _, bucket := range buckets {
		key := strings.TrimSpace(bucket.Key)
		if key == "" {
			return nil, services.Wrap(services.ErrValidation, "catalog", "bucket", "empty bucket key", nil)
		}
		if key == UnsortedKey || key == QuarantineKey {
			return nil, services.Wrap(services.ErrValidation, "catalog", "bucket", fmt.Sprintf("bucket key %q is reserved", key), nil)
		}
		if _, dup := c.buckets[key]; dup {
			return nil, services.Wrap(services.ErrValidation, "catalog", "bucket", fmt.Sprintf("duplicate bucket %q", key), nil)
		}
		if _, ok := c.categories[bucket.Category]; !ok {
			return nil, services.Wrap(services.ErrValidation, "catalog", "bucket", fmt.Sprintf("bucket %q references undefined category %q", key, bucket.Category), nil)
		}
		if bucket.DisplayName == "" {
			bucket.DisplayName = key
		}
		bucket.Key = key
		c.buckets[key] = bucket
		c.ordered = append(c.ordered, key)
	}

	sort.Slice(c.ordered, func(i, j int) bool {
		return c.Less(c.ordered[i], c.ordered[j])
	})
	return c, nil
}

// ApplyRenames overrides bucket display names. Unknown keys are reported so
// stale rename entries surface instead of silently dropping.
func (c *Catalog) ApplyRenames(renames map[string]string) error {
	for key, display := range renames {
		bucket, ok := c.buckets[key]
		if !ok {
			return services.Wrap(services.ErrValidation, "catalog", "rename", fmt.Sprintf("rename references undefined bucket %q", key), nil)
		}
		display = strings.TrimSpace(display)
		if display == "" {
			continue
		}
		bucket.DisplayName = display
		c.buckets[key] = bucket
	}
	return nil
}

// Bucket returns the bucket definition for the internal key.
func (c *Catalog) Bucket(key string) (Bucket, bool) {
	bucket, ok := c.buckets[key]
	return bucket, ok
}

// Category returns the category definition for the key.
func (c *Catalog) Category(key string) (Category, bool) {
	cat, ok := c.categories[key]
	return cat, ok
}

// Buckets returns all buckets in deterministic tie-break order.
func (c *Catalog) Buckets() []Bucket {
	out := make([]Bucket, 0, len(c.ordered))
	for _, key := range c.ordered {
		out = append(out, c.buckets[key])
	}
	return out
}

// Categories returns categories sorted by key.
func (c *Catalog) Categories() []Category {
	keys := make([]string, 0, len(c.categories))
	for key := range c.categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Category, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.categories[key])
	}
	return out
}

// Less is the stable tie-break ordering: priority first, then key.
func (c *Catalog) Less(a, b string) bool {
	ba, bb := c.buckets[a], c.buckets[b]
	if ba.Priority != bb.Priority {
		return ba.Priority < bb.Priority
	}
	return ba.Key < bb.Key
}

// Len returns the number of buckets.
func (c *Catalog) Len() int {
	return len(c.buckets)
}
