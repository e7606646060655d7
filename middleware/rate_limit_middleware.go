package middleware

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/0xxfu/bittensor/status"
	"github.com/0xxfu/bittensor/transport"
)

var ErrRateLimited = errors.New("middleware: rate limit exceeded")

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
//
// Calls wait for a token while their deadline allows it and fail with
// ErrRateLimited when it cannot be met. The request was never sent, so the failure
// is a client error.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("%w: %w: %v", status.ErrClient, ErrRateLimited, err)
			}
			return next(ctx, req)
		}
	}
}
