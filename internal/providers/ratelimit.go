package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped provider.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with a burst of the same size.
func NewRateLimited(p Provider, perSecond int) *RateLimited {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &RateLimited{Provider: p, limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond)}
}

func (r *RateLimited) Send(ctx context.Context, msg Message) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: r.Name(), Kind: ErrorKindTimeout, Err: err}
	}
	return r.Provider.Send(ctx, msg)
}
