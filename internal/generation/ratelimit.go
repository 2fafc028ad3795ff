package generation

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// RateLimited wraps gen so calls are issued at no more than perSecond on
// average with the given burst. Waiting honors ctx.
func RateLimited(gen Generator, perSecond float64, burst int) Generator {
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: gen, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimited) Generate(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return r.next.Generate(ctx, req)
}
