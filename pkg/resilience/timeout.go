package resilience

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

// WithTimeout runs fn under a derived context that expires after timeout.
// fn is expected to watch the context; an expiry surfaces as ErrTimeout so
// the API answers 503 instead of a generic failure.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(timeoutCtx)
	if err != nil && errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		if errors.Is(err, apperrors.ErrTimeout) {
			return err
		}
		return apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable,
			"%s exceeded %v", name, timeout)
	}
	return err
}
