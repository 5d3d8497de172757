package client

import (
	"context"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Limiter gates outbound calls. Take blocks until a call may proceed, so
// exceeding the configured rate suspends the caller instead of failing.
type Limiter interface {
	Take(ctx context.Context) error
}

const limiterKey = "apidiff"

// Fallback poll interval when the store's reset timestamp has already
// passed (it carries one-second resolution).
const retryInterval = 10 * time.Millisecond

type windowLimiter struct {
	lim *limiter.Limiter
}

// NewWindowLimiter caps throughput at calls per period using a fixed window
// in memory. One instance is shared by every call site, so the ceiling holds
// globally across both endpoints.
func NewWindowLimiter(calls int, period time.Duration) Limiter {
	rate := limiter.Rate{Limit: int64(calls), Period: period}
	return &windowLimiter{lim: limiter.New(memory.NewStore(), rate)}
}

func (w *windowLimiter) Take(ctx context.Context) error {
	for {
		c, err := w.lim.Peek(ctx, limiterKey)
		if err != nil {
			return err
		}
		if c.Remaining > 0 {
			if _, err := w.lim.Get(ctx, limiterKey); err != nil {
				return err
			}
			return nil
		}

		wait := time.Until(time.Unix(c.Reset, 0))
		if wait <= 0 {
			wait = retryInterval
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
