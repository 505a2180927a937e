package services_test

import (
	"context"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithUnit(ctx, "Lincoln Elementary")
	ctx = services.WithBucket(ctx, "elementary")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if unit, ok := services.UnitFromContext(ctx); !ok || unit != "Lincoln Elementary" {
		t.Fatalf("unexpected unit: %v %v", unit, ok)
	}
	if bucket, ok := services.BucketFromContext(ctx); !ok || bucket != "elementary" {
		t.Fatalf("unexpected bucket: %v %v", bucket, ok)
	}
}

func TestUnitBlankPreservesContext(t *testing.T) {
	ctx := services.WithUnit(context.Background(), "")
	if _, ok := services.UnitFromContext(ctx); ok {
		t.Fatal("expected no unit value")
	}
}
