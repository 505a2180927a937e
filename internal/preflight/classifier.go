package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lisaguthrie/sipdashboard/internal/classifier"
	"github.com/lisaguthrie/sipdashboard/internal/config"
)

// CheckClassifier verifies the configured provider answers with the
// configured key. It uses a 30-second timeout. An offline configuration
// passes with the reason it is offline.
func CheckClassifier(ctx context.Context, cfg *config.Config) Result {
	const name = "Classifier"

	if ready, reason := cfg.NetworkReady(); !ready {
		return Result{Name: name, Passed: true, Detail: "offline: " + reason}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	set, err := classifier.New(checkCtx, cfg, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := set.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeClassifierError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s) reachable", set.Provider, set.FocusModel)}
}

// summarizeClassifierError produces a human-readable summary for health check failures.
func summarizeClassifierError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (classifier API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (classifier API unreachable)"
	}
	return err.Error()
}
