package client

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"pkt.systems/pslog"

	"pkt.systems/jmap/request"
)

const instrumentationName = "pkt.systems/jmap/client"

type clientMetrics struct {
	requests     metric.Int64Counter
	methodErrors metric.Int64Counter
	duration     metric.Float64Histogram
}

func newClientMetrics(logger pslog.Logger, provider metric.MeterProvider) *clientMetrics {
	meter := provider.Meter(instrumentationName)
	m := &clientMetrics{}
	var err error

	m.requests, err = meter.Int64Counter(
		"jmap.client.requests",
		metric.WithDescription("JMAP API requests submitted"),
	)
	logMetricInitError(logger, "jmap.client.requests", err)

	m.methodErrors, err = meter.Int64Counter(
		"jmap.client.method_errors",
		metric.WithDescription("Method-level errors returned by the server"),
	)
	logMetricInitError(logger, "jmap.client.method_errors", err)

	m.duration, err = meter.Float64Histogram(
		"jmap.client.request.duration_ms",
		metric.WithDescription("JMAP API request latency"),
		metric.WithUnit("ms"),
	)
	logMetricInitError(logger, "jmap.client.request.duration_ms", err)

	return m
}

func (m *clientMetrics) recordRequest(ctx context.Context, calls int, begin time.Time, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("jmap.result", resultLabel(err)),
		attribute.Int("jmap.calls", calls),
	)
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(time.Since(begin).Microseconds())/1000, attrs)
	}
}

func (m *clientMetrics) recordMethodError(ctx context.Context, method, errorType string) {
	if m == nil || m.methodErrors == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.methodErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("jmap.method", method),
		attribute.String("jmap.error_type", errorType),
	))
}

func resultLabel(err error) string {
	var buildErr *request.BuildError
	var refErr *request.ReferenceError
	var transportErr *TransportError
	var protocolErr *ProtocolError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &protocolErr):
		return "method_error"
	case errors.As(err, &buildErr), errors.As(err, &refErr):
		return "build_error"
	case errors.As(err, &transportErr):
		return "http_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func logMetricInitError(logger pslog.Logger, name string, err error) {
	if err == nil || logger == nil {
		return
	}
	logger.Warn("telemetry.metric.init_failed", "name", name, "error", err)
}
