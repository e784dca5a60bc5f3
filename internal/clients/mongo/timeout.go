package mongo

import (
	"context"
	"time"
)

// OpTimeout bounds a single repository call.
const OpTimeout = 5 * time.Second

// opContext applies OpTimeout unless ctx already ends sooner or is done.
// The cancel func is always non-nil.
func opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundedContext(ctx, OpTimeout)
}

func boundedContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() != nil {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= d {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
