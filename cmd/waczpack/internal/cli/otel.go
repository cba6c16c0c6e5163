package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"github.com/waczpack/waczpack/pkg/metrics"
	"github.com/waczpack/waczpack/pkg/prometheus"
	"github.com/waczpack/waczpack/pkg/tracing"
)

// telemetry carries the observability collaborators handed to the core,
// plus the shutdown that flushes them once the run finishes.
type telemetry struct {
	tracer   tracing.Tracer
	metrics  metrics.Metrics
	shutdown func(context.Context) error
}

// setupTelemetry bootstraps tracing and metrics from the --otel-enabled
// and --metrics-addr flags. Both default to no-ops, so the core never
// sees a nil collaborator.
func setupTelemetry(ctx context.Context, cmd *cli.Command) (telemetry, error) {
	tel := telemetry{
		tracer:  tracing.NoopTracer(),
		metrics: metrics.NoOp{},
	}

	var shutdownFuncs []func(context.Context) error

	tel.shutdown = func(ctx context.Context) error {
		var errs []error

		for _, fn := range shutdownFuncs {
			errs = append(errs, fn(ctx))
		}

		return errors.Join(errs...)
	}

	if cmd.Bool("otel-enabled") {
		res, err := resource.New(ctx,
			resource.WithSchemaURL(semconv.SchemaURL),
			resource.WithAttributes(
				semconv.ServiceName(cmd.Root().Name),
				semconv.ServiceVersionKey.String(Version),
			),
		)
		if err != nil {
			return tel, err
		}

		exporter, err := stdouttrace.New()
		if err != nil {
			return tel, err
		}

		tracerProvider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)

		shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
		tel.tracer = tracing.New(tracerProvider.Tracer("github.com/waczpack/waczpack"))
	}

	if addr := cmd.String("metrics-addr"); addr != "" {
		registry, metricsShutdown, err := prometheus.SetupPrometheusMetrics(ctx, cmd.Root().Name, Version)
		if err != nil {
			return tel, err
		}

		shutdownFuncs = append(shutdownFuncs, metricsShutdown)
		tel.metrics = metrics.NewPrometheus(registry)

		srv := &http.Server{
			Addr:              addr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zerolog.Ctx(ctx).Warn().Err(err).Str("addr", addr).Msg("metrics server exited")
			}
		}()

		shutdownFuncs = append(shutdownFuncs, srv.Shutdown)
	}

	return tel, nil
}
