package middleware

import (
	"context"
	"time"

	"github.com/0xxfu/bittensor/transport"
)

type result struct {
	resp *transport.Response
	err  error
}

// TimeOutMiddleware bounds the exchange by req.Timeout, or by fallback when the
// request carries none. A non-positive fallback leaves the deadline to the caller's
// context.
func TimeOutMiddleware(fallback time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			timeout := req.Timeout
			if timeout <= 0 {
				timeout = fallback
			}
			if timeout <= 0 {
				return next(ctx, req)
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan result, 1)
			go func() {
				resp, err := next(ctx, req)
				done <- result{resp: resp, err: err}
			}()

			select {
			case r := <-done:
				return r.resp, r.err
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}
