package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/FACorreiaa/medilive-templui/internal/app/observability/metrics"
	"github.com/FACorreiaa/medilive-templui/internal/app/observability/tracer"
	"github.com/FACorreiaa/medilive-templui/internal/pkg/config"
)

// ObservabilityShutdownFunc is the function type returned by InitObservability
type ObservabilityShutdownFunc func(context.Context) error

// InitObservability initializes OpenTelemetry and application metrics
func InitObservability(oc config.ObservabilityConfig, logger *zap.Logger) (ObservabilityShutdownFunc, error) {
	otelShutdown, err := tracer.InitOtelProviders(tracer.Options{
		ServiceName:  oc.ServiceName,
		MetricsAddr:  oc.MetricsAddr,
		OTLPEndpoint: oc.OTLPEndpoint,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics.InitAppMetrics(logger)
	logger.Info("Observability initialized", zap.String("metrics_endpoint", oc.MetricsAddr+"/metrics"))

	return otelShutdown, nil
}
