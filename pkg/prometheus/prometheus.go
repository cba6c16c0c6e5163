// Package prometheus bridges the OpenTelemetry metrics SDK onto a
// Prometheus registry, so pipeline metrics can be scraped over HTTP
// without any other telemetry export configured.
package prometheus

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"

	promclient "github.com/prometheus/client_golang/prometheus"
	prometheus "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// SetupPrometheusMetrics configures OpenTelemetry to export metrics in
// Prometheus format only. The returned registry serves double duty: it is
// the Gatherer an HTTP handler scrapes, and the Registerer additional
// collectors (pkg/metrics) are registered on.
func SetupPrometheusMetrics(
	ctx context.Context,
	serviceName, serviceVersion string,
) (*promclient.Registry, func(context.Context) error, error) {
	res, err := resource.New(
		ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
		resource.WithProcessCommandArgs(),
		resource.WithProcessRuntimeVersion(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, nil, err
	}

	registry := promclient.NewRegistry()

	prometheusExporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(prometheusExporter),
	)

	// Set the meter provider globally for OpenTelemetry instrumentation.
	otel.SetMeterProvider(meterProvider)

	return registry, meterProvider.Shutdown, nil
}
