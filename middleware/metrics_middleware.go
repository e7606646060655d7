package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/go-metrics"

	"github.com/0xxfu/bittensor/status"
	"github.com/0xxfu/bittensor/transport"
)

var (
	MetricDendriteRequestCount      = []string{"dendrite", "request", "count"}
	MetricDendriteRequestErrorCount = []string{"dendrite", "request", "error", "count"}
	MetricDendriteRequestLatencyMs  = []string{"dendrite", "request", "latency", "ms"}
	MetricDendriteResponseBytes     = []string{"dendrite", "response", "bytes"}
)

const (
	LabelSynapse  = "synapse"
	LabelStatus   = "status"
	LabelCategory = "category"
)

// MetricsMiddleware emits request counts, failures by category and latency to sink.
// Static labels are attached to every sample.
func MetricsMiddleware(sink metrics.MetricSink, labels ...metrics.Label) Middleware {
	if sink == nil {
		sink = &metrics.BlackholeSink{}
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			mLabels := append([]metrics.Label{{Name: LabelSynapse, Value: req.Synapse}}, labels...)
			latency := float32(time.Since(start).Seconds() * 1000)

			if err != nil {
				errLabels := append(mLabels, metrics.Label{Name: LabelCategory, Value: status.Categorize(err).String()})
				sink.IncrCounterWithLabels(MetricDendriteRequestErrorCount, 1, errLabels)
				sink.AddSampleWithLabels(MetricDendriteRequestLatencyMs, latency, mLabels)
				return resp, err
			}

			okLabels := append(mLabels, metrics.Label{Name: LabelStatus, Value: strconv.Itoa(resp.StatusCode)})
			sink.IncrCounterWithLabels(MetricDendriteRequestCount, 1, okLabels)
			sink.AddSampleWithLabels(MetricDendriteRequestLatencyMs, latency, mLabels)
			sink.AddSampleWithLabels(MetricDendriteResponseBytes, float32(len(resp.Body)), mLabels)
			return resp, nil
		}
	}
}
