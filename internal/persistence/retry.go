package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a primary write is attempted and how long
// to wait between attempts.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is five attempts, two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Delay: 2 * time.Second}
}

func (p RetryPolicy) backoff() retry.Backoff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var b retry.Backoff
	if p.Delay > 0 {
		b = retry.NewConstant(p.Delay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}

// Do runs fn until it succeeds, fails with an error that is not a
// connectivity error, or the attempts are used up. It returns the number
// of attempts made and the last error. Waiting honors ctx.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	attempts := 0
	var last error
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempts++
		last = fn(ctx)
		if last != nil && errors.Is(last, common.ErrUnavailable) {
			return retry.RetryableError(last)
		}
		return last
	})
	if err != nil && last != nil && !errors.Is(err, last) {
		err = errors.Join(err, last)
	}
	return attempts, err
}
