package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "medilive-templui"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	RouteDecisionsTotal    metric.Int64Counter
	TemplateRenderDuration metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider. Only the first call
// has an effect, so the provider must be installed before it.
func InitAppMetrics(logger *zap.Logger) {
	once.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}
		var err error

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			logger.Error("Metrics: failed to create http_requests_total", zap.Error(err))
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			logger.Error("Metrics: failed to create http_request_duration_seconds", zap.Error(err))
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of login, signup and logout submissions"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			logger.Error("Metrics: failed to create auth_requests_total", zap.Error(err))
		}

		m.RouteDecisionsTotal, err = meter.Int64Counter(
			"route_decisions_total",
			metric.WithDescription("Route guard decisions by target"),
			metric.WithUnit("{decision}"),
		)
		if err != nil {
			logger.Error("Metrics: failed to create route_decisions_total", zap.Error(err))
		}

		m.TemplateRenderDuration, err = meter.Float64Histogram(
			"template_render_duration_seconds",
			metric.WithDescription("Duration of template rendering in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			logger.Error("Metrics: failed to create template_render_duration_seconds", zap.Error(err))
		}

		logger.Info("Application metrics instruments initialized")
		appMetrics = m
	})
}

// Get returns the instruments, creating them from whatever provider is installed
// (a no-op one in tests) if InitAppMetrics has not run yet.
func Get() *AppMetrics {
	InitAppMetrics(nil)
	return appMetrics
}

// RecordRequest counts one finished HTTP request and its duration.
func RecordRequest(ctx context.Context, method, route string, status int, seconds float64) {
	m := Get()
	if m.HTTPRequestsTotal != nil {
		m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", route),
			attribute.Int("status", status),
		))
	}
	if m.HTTPRequestDuration != nil {
		m.HTTPRequestDuration.Record(ctx, seconds, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", route),
		))
	}
}

// RecordAuth counts one auth submission. outcome is "success", "invalid" or "error".
func RecordAuth(ctx context.Context, endpoint, outcome string) {
	if m := Get(); m.AuthRequestsTotal != nil {
		m.AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("outcome", outcome),
		))
	}
}

// RecordDecision counts one route guard decision.
func RecordDecision(ctx context.Context, target, phase string) {
	if m := Get(); m.RouteDecisionsTotal != nil {
		m.RouteDecisionsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("target", target),
			attribute.String("phase", phase),
		))
	}
}

// RecordRender records how long a page took to render.
func RecordRender(ctx context.Context, page string, seconds float64) {
	if m := Get(); m.TemplateRenderDuration != nil {
		m.TemplateRenderDuration.Record(ctx, seconds, metric.WithAttributes(
			attribute.String("page", page),
		))
	}
}
