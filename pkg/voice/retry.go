package voice

import (
	"context"
	"time"

	"github.com/voicerelay/voicerelay/pkg/logger"
)

// RetryPolicy bounds how often a transient failure is retried.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Sleep      func(context.Context, time.Duration) error
}

// DefaultRetryPolicy retries a transient failure exactly once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		Backoff:    2 * time.Second,
	}
}

// RetryingSynthesizer retries transient failures of the wrapped synthesizer.
// Invalid input is returned immediately.
type RetryingSynthesizer struct {
	next   Synthesizer
	policy RetryPolicy
}

func WithRetry(next Synthesizer, policy RetryPolicy) *RetryingSynthesizer {
	if policy.Sleep == nil {
		policy.Sleep = sleepWithCtx
	}
	return &RetryingSynthesizer{next: next, policy: policy}
}

func (r *RetryingSynthesizer) Synthesize(ctx context.Context, req Request) error {
	var err error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.WarnCF("voice", "Retrying synthesis after transient error", map[string]any{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			if sleepErr := r.policy.Sleep(ctx, r.policy.Backoff); sleepErr != nil {
				return sleepErr
			}
		}

		err = r.next.Synthesize(ctx, req)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func sleepWithCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
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
