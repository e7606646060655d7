// Package middleware wraps the HTTP exchange of a dendrite call.
//
// Middlewares compose like an onion: Chain(A, B)(h) runs A.before, B.before, h,
// B.after, A.after. The dendrite always puts Timeout outermost, so everything inside
// the chain runs under the call deadline.
package middleware

import (
	"context"

	"github.com/0xxfu/bittensor/transport"
)

type HandlerFunc func(ctx context.Context, req *transport.Request) (*transport.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
