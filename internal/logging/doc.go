// Package logging constructs slog loggers for the engine and CLI. It offers a
// human-oriented console handler, a JSON handler for machine consumption, typed
// attribute helpers, and context plumbing for run-scoped fields.
package logging
