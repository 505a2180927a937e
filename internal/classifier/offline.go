package classifier

import (
	"context"

	"github.com/lisaguthrie/sipdashboard/internal/services"
)

// Offline refuses every call. The normalizer never reaches it while the
// network is disallowed; it exists so a misrouted call fails loudly.
type Offline struct {
	Reason string
}

// Classify always fails with ErrClassifier.
func (o Offline) Classify(ctx context.Context, _, _ string) (string, error) {
	unit, _ := services.UnitFromContext(ctx)
	reason := o.Reason
	if reason == "" {
		reason = "classifier offline"
	}
	return "", services.Wrap(services.ErrClassifier, unit, "classify", reason, nil)
}
