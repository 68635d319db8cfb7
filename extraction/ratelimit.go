package extraction

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient waits on a token bucket before every call.
type RateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimitedClient allows perMinute calls per minute with the given
// burst. A non-positive perMinute disables limiting.
func NewRateLimitedClient(next Client, perMinute, burst int) *RateLimitedClient {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (c *RateLimitedClient) Extract(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Code: CodeOpenAIError, Message: "The extraction service is busy. Please try again.", Err: err}
	}
	return c.next.Extract(ctx, req)
}
