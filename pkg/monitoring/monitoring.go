package monitoring

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type OpenTelemetry struct {
	serviceName string
	environment string
	provider    *sdktrace.TracerProvider
}

func NewOpenTelemetry(serviceName, environment string) *OpenTelemetry {
	return &OpenTelemetry{
		serviceName: serviceName,
		environment: environment,
	}
}

func (m *OpenTelemetry) Start(ctx context.Context) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(m.serviceName),
			attribute.String("environment", m.environment),
		),
	)
	if err != nil {
		return err
	}

	m.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(m.provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

func (m *OpenTelemetry) Stop(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}

	return m.provider.Shutdown(ctx)
}
