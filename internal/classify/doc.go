// Package classify scores files against the bucket catalog.
//
// Three signals feed a weighted sum: the parent folder name, the file name,
// and the audio descriptor distance to a bucket's reference profile. Buckets
// without a profile drop the audio weight from the denominator so name-only
// buckets compete fairly. The result carries the top three candidates, a
// confidence in [0, 1], and the low-confidence and quarantine flags the
// router acts on.
//
// Classification is pure and deterministic: identical inputs always produce
// identical candidates, with ties broken by catalog priority order.
package classify
