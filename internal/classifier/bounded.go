package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/services"
)

// Bounded limits a classifier to a shared number of in-flight calls and a
// per-call deadline. Callers beyond the limit wait for a slot.
type Bounded struct {
	next    normalize.Classifier
	slots   *semaphore.Weighted
	timeout time.Duration
}

// NewLimiter returns a semaphore admitting n concurrent calls (at least one).
func NewLimiter(n int) *semaphore.Weighted {
	if n <= 0 {
		n = 1
	}
	return semaphore.NewWeighted(int64(n))
}

// Bound wraps next. A nil slots argument gets a private single-slot limiter;
// a non-positive timeout disables the per-call deadline.
func Bound(next normalize.Classifier, slots *semaphore.Weighted, timeout time.Duration) *Bounded {
	if slots == nil {
		slots = NewLimiter(1)
	}
	return &Bounded{next: next, slots: slots, timeout: timeout}
}

// Unwrap returns the wrapped classifier.
func (b *Bounded) Unwrap() normalize.Classifier {
	return b.next
}

// Classify waits for a slot, then forwards the call under the deadline.
func (b *Bounded) Classify(ctx context.Context, system, user string) (string, error) {
	unit, _ := services.UnitFromContext(ctx)
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return "", services.Wrap(services.ErrClassifier, unit, "classify", "waiting for classifier slot", err)
	}
	defer b.slots.Release(1)

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	reply, err := b.next.Classify(callCtx, system, user)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, unit, "classify", fmt.Sprintf("no reply within %s", b.timeout), err)
		}
		return "", err
	}
	return reply, nil
}
