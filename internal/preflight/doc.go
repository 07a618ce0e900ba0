// Package preflight provides readiness checks for the paths a run depends on.
//
// These checks run in two contexts:
//   - The executor calls RunAll before any stage touches the hub, so a doomed
//     run fails fast instead of partway through.
//   - The "crates doctor" command uses the same checks to display health.
//
// The free-space check only runs for mutating modes, comparing the inbox tree
// size against the hub filesystem's available bytes.
package preflight
