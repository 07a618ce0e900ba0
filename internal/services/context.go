package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	packKey      contextKey = "pack"
	componentKey contextKey = "component"
)

// WithRunID annotates context with the current run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(runIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPack annotates context with the pack being processed.
func WithPack(ctx context.Context, pack string) context.Context {
	if pack == "" {
		return ctx
	}
	return context.WithValue(ctx, packKey, pack)
}

// PackFromContext returns the pack name if present.
func PackFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(packKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithComponent annotates context with the engine component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(componentKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
