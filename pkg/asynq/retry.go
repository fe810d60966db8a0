package asynq

import (
	"context"
	"time"

	"loyalty-webhook-processor/pkg/config"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"
)

// ExponentialBackoff returns a retry delay of base * 2^n, where n is the
// number of times the task has been retried so far.
func ExponentialBackoff(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, e error, t *asynq.Task) time.Duration {
		return base * (1 << n)
	}
}

// RateLimit throttles job starts across the whole worker pool to protect
// downstream storage. Workers block on the shared limiter before a task
// handler runs.
func RateLimit(cfg *config.Config) asynq.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.Worker.RateLimit), cfg.Worker.RateBurst)

	return func(h asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			return h.ProcessTask(ctx, t)
		})
	}
}
