package monitoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// TracingManager manages OpenTelemetry tracing for the evaluation pipeline.
type TracingManager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   logger.Logger
}

// NewTracingManager initializes tracing. When disabled it returns a manager
// backed by the global no-op tracer.
func NewTracingManager(cfg *config.TracingConfig, log logger.Logger) (*TracingManager, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "tracing is disabled")
		return &TracingManager{
			tracer: otel.Tracer(cfg.ServiceName),
			logger: log,
		}, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(cfg.JaegerEndpoint),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(context.Background(), "tracing initialized",
		logger.String("endpoint", cfg.JaegerEndpoint),
		logger.Float64("sampling_rate", cfg.SamplingRate),
	)

	return &TracingManager{
		tracer:   provider.Tracer(cfg.ServiceName),
		provider: provider,
		logger:   log,
	}, nil
}

// StartSpan starts a new span.
func (tm *TracingManager) StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tm.tracer.Start(ctx, spanName, opts...)
}

// RecordError records err on the current span and marks it failed.
func (tm *TracingManager) RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes and stops the tracer provider.
func (tm *TracingManager) Shutdown(ctx context.Context) error {
	if tm.provider == nil {
		return nil
	}
	if err := tm.provider.Shutdown(ctx); err != nil {
		tm.logger.Error(ctx, "failed to shutdown tracing provider", err)
		return err
	}
	return nil
}
