package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy retries throttled, overloaded and timed-out requests with
// doubling delays.
type retryPolicy struct {
	attempts int
	base     time.Duration
	ceiling  time.Duration
	sleeper  func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 5, base: time.Second, ceiling: 10 * time.Second}
}

// run calls fn until it succeeds, fails permanently or the attempts run out.
// It reports how many attempts were made.
func (p retryPolicy) run(ctx context.Context, fn func() (string, error)) (string, int, error) {
	total := max(p.attempts, 1)
	for attempt := 1; ; attempt++ {
		reply, err := fn()
		if err == nil {
			return reply, attempt, nil
		}
		if attempt == total || ctx.Err() != nil {
			return "", attempt, err
		}
		delay, ok := p.wait(err, attempt)
		if !ok {
			return "", attempt, err
		}
		if serr := p.sleep(ctx, delay); serr != nil {
			return "", attempt, serr
		}
	}
}

// wait reports whether err is transient and how long to pause before the
// next attempt.
func (p retryPolicy) wait(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var empty *emptyReplyError
	if errors.As(err, &empty) {
		return p.backoff(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if !status.transient() {
			return 0, false
		}
		if status.retryAfter > 0 {
			return min(status.retryAfter, p.limit()), true
		}
		return p.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff is base for the first attempt and doubles after each, capped at
// the ceiling.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt && delay < p.limit(); i++ {
		delay *= 2
	}
	return min(delay, p.limit())
}

func (p retryPolicy) limit() time.Duration {
	if p.ceiling > 0 {
		return p.ceiling
	}
	return defaultRetryPolicy().ceiling
}

func (p retryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if p.sleeper != nil {
		p.sleeper(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *statusError) transient() bool {
	return e.code == http.StatusRequestTimeout ||
		e.code == http.StatusTooManyRequests ||
		e.code >= http.StatusInternalServerError
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
