package logging

import (
	"context"
	"log/slog"

	"github.com/lisaguthrie/sipdashboard/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the structured logging key for the extraction run identifier.
	FieldRunID = "run_id"
	// FieldUnit is the structured logging key for the unit (school) name.
	FieldUnit = "unit"
	// FieldBucket is the structured logging key for the index bucket.
	FieldBucket = "bucket"
	// FieldPage is the structured logging key for a 1-indexed page number.
	FieldPage = "page"
	// FieldEventType tags a record with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the kind of decision a record explains.
	FieldDecisionType = "decision_type"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if bucket, ok := services.BucketFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBucket, bucket))
	}
	if unit, ok := services.UnitFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUnit, unit))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
