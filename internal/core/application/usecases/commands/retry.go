package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
)

const maxConflictRetries = 4

// retryOnConflict reruns op with fresh state while it loses compare-and-set
// races. Any other error stops the loop and is returned as is.
func retryOnConflict(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if err == nil || errors.Is(err, errs.ErrConcurrentConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxConflictRetries), ctx))
}
