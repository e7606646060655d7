package dendrite

import (
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-metrics"
	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/middleware"
	"github.com/0xxfu/bittensor/status"
)

// DefaultTimeout bounds a call that was given no timeout.
const DefaultTimeout = 12 * time.Second

var ErrInvalidCfg = errors.New("dendrite: invalid options")

type config struct {
	logger         *zap.Logger
	externalIP     string
	defaultTimeout time.Duration
	middlewares    []middleware.Middleware
	maxConcurrency int
	roundTripper   http.RoundTripper
	table          *status.Table
}

// Option to pass to `New`
type Option func(*config) error

// WithLogger specifies which `zap.Logger` to use. Calls and their outcomes are
// logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
		return nil
	}
}

// WithExternalIP sets the address stamped on the dendrite terminal. Without it the
// address of the default outbound interface is used.
func WithExternalIP(ip string) Option {
	return func(c *config) error {
		c.externalIP = ip
		return nil
	}
}

// WithDefaultTimeout controls how long a call given no timeout waits.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.defaultTimeout = timeout
		return nil
	}
}

// WithMiddleware appends middlewares to the call chain. They run inside the call
// deadline, in the order given.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *config) error {
		c.middlewares = append(c.middlewares, mws...)
		return nil
	}
}

// WithMetricSink records request metrics to ms.
func WithMetricSink(ms metrics.MetricSink, labels ...metrics.Label) Option {
	return func(c *config) error {
		c.middlewares = append(c.middlewares, middleware.MetricsMiddleware(ms, labels...))
		return nil
	}
}

// WithRateLimit caps outgoing calls at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) error {
		if rps <= 0 || burst <= 0 {
			return ErrInvalidCfg
		}
		c.middlewares = append(c.middlewares, middleware.RateLimitMiddleware(rps, burst))
		return nil
	}
}

// WithMaxConcurrency bounds how many calls of one Forward are in flight. Zero means
// no bound.
func WithMaxConcurrency(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return ErrInvalidCfg
		}
		c.maxConcurrency = n
		return nil
	}
}

// WithHTTPTransport makes sessions use rt instead of a dedicated `http.Transport`.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(c *config) error {
		c.roundTripper = rt
		return nil
	}
}

// WithStatusTable replaces the error mapping table.
func WithStatusTable(table *status.Table) Option {
	return func(c *config) error {
		if table == nil {
			return ErrInvalidCfg
		}
		c.table = table
		return nil
	}
}

// CallOption tunes a single Call, Query or Forward.
type CallOption func(*callConfig)

type callConfig struct {
	timeout     time.Duration
	deserialize bool
	sequential  bool
}

// WithTimeout bounds each call. Zero means the dendrite default.
func WithTimeout(timeout time.Duration) CallOption {
	return func(c *callConfig) {
		c.timeout = timeout
	}
}

// WithDeserialize selects between the user-facing output (true, the default) and
// the full envelope (false).
func WithDeserialize(deserialize bool) CallOption {
	return func(c *callConfig) {
		c.deserialize = deserialize
	}
}

// WithSequential makes Forward call its targets one after another.
func WithSequential() CallOption {
	return func(c *callConfig) {
		c.sequential = true
	}
}
