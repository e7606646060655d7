package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/transport"
)

// LoggingMiddleware logs every exchange at debug level: the outgoing request and
// the incoming status or error.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			fields := []zap.Field{
				zap.String("synapse", req.Synapse),
				zap.String("hotkey", req.Hotkey),
				zap.String("endpoint", req.URL),
			}
			logger.Debug("dendrite | --> |", append(fields, zap.Int("size", len(req.Body)))...)

			start := time.Now()
			resp, err := next(ctx, req)
			fields = append(fields, zap.Duration("duration", time.Since(start)))

			if err != nil {
				logger.Debug("dendrite | <-- |", append(fields, zap.Error(err))...)
				return resp, err
			}
			logger.Debug("dendrite | <-- |", append(fields,
				zap.Int("size", len(resp.Body)),
				zap.Int("status", resp.StatusCode),
			)...)
			return resp, nil
		}
	}
}
