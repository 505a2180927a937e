package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnitNotFound marks a unit whose name could not be located on its start page.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrStructural marks a goal row-set that could not be closed cleanly.
	ErrStructural = errors.New("structural reconciliation error")
	// ErrClassifier marks a failed or timed out classifier call.
	ErrClassifier = errors.New("classifier error")
	// ErrCacheEntry marks a malformed entry in the previous output snapshot.
	ErrCacheEntry = errors.New("cache entry error")
	// ErrIndex marks a missing or unparseable unit index.
	ErrIndex = errors.New("index error")

	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Outcome describes how the pipeline reacts to a failure.
type Outcome string

const (
	// OutcomeFatal aborts the run before any unit is processed.
	OutcomeFatal Outcome = "fatal"
	// OutcomeSkip drops the affected unit and continues with the others.
	OutcomeSkip Outcome = "skip"
	// OutcomePartial keeps whatever was assembled for the unit.
	OutcomePartial Outcome = "partial"
	// OutcomeRecovered means a default value replaced the failed result.
	OutcomeRecovered Outcome = "recovered"
)

// Wrap builds an error message that includes unit context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, unit, operation, message string, err error) error {
	detail := buildDetail(unit, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the pipeline outcome it should produce.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeRecovered
	case errors.Is(err, ErrIndex), errors.Is(err, ErrConfiguration):
		return OutcomeFatal
	case errors.Is(err, ErrUnitNotFound):
		return OutcomeSkip
	case errors.Is(err, ErrStructural):
		return OutcomePartial
	case errors.Is(err, ErrClassifier), errors.Is(err, ErrCacheEntry), errors.Is(err, ErrTimeout):
		return OutcomeRecovered
	default:
		return OutcomeSkip
	}
}

func buildDetail(unit, operation, message string) string {
	parts := make([]string, 0, 3)
	if unit = strings.TrimSpace(unit); unit != "" {
		parts = append(parts, unit)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "extraction failure"
	}
	return strings.Join(parts, ": ")
}
