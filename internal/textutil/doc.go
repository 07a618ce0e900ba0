// Package textutil provides the text processing used by name-signal scoring
// and destination naming.
//
// The primary use cases are:
//   - Normalizing folder and file names into comparable token streams
//   - Counting keyword vocabulary hits, including multi-token keywords
//   - Sanitizing pack names for safe filesystem use
//
// Tokenization folds case with Unicode case folding, splits on
// non-alphanumeric characters, and keeps numeric tokens (sample vocabularies
// lean on tokens like "808").
package textutil
