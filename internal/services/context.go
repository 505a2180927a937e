package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	unitKey   contextKey = "unit"
	bucketKey contextKey = "bucket"
)

// WithRunID annotates context with the extraction run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUnit annotates context with the unit (school) being processed.
func WithUnit(ctx context.Context, unit string) context.Context {
	if unit == "" {
		return ctx
	}
	return context.WithValue(ctx, unitKey, unit)
}

// UnitFromContext returns the unit name if present.
func UnitFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(unitKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBucket annotates context with the index bucket (elementary, middle, high).
func WithBucket(ctx context.Context, bucket string) context.Context {
	if bucket == "" {
		return ctx
	}
	return context.WithValue(ctx, bucketKey, bucket)
}

// BucketFromContext returns the bucket name if present.
func BucketFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(bucketKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
