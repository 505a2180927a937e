package services_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStructural, "Lincoln Elementary", "reconcile", "range exhausted", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStructural) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"Lincoln Elementary", "reconcile", "range exhausted"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "extraction failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassifyOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Outcome
	}{
		{"index", services.Wrap(services.ErrIndex, "", "load", "missing", nil), services.OutcomeFatal},
		{"unit", services.Wrap(services.ErrUnitNotFound, "Adams", "verify", "", nil), services.OutcomeSkip},
		{"structural", services.Wrap(services.ErrStructural, "Adams", "reconcile", "", nil), services.OutcomePartial},
		{"classifier", services.Wrap(services.ErrClassifier, "Adams", "classify", "", errors.New("503")), services.OutcomeRecovered},
		{"cache", services.Wrap(services.ErrCacheEntry, "", "snapshot", "", nil), services.OutcomeRecovered},
		{"unknown", errors.New("io"), services.OutcomeSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}
