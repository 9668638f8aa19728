// Functions for working with OpenTelemetry in groupd.

package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/craigwongva/pz-access/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/craigwongva/pz-access"

const (
	AttributeDeploymentGroup = attribute.Key("deployment_group.id")
	AttributeLayerCount      = attribute.Key("deployment_group.layers")
	AttributeHTTPMethod      = attribute.Key("http.method")
	AttributeHTTPURL         = attribute.Key("http.url")
	AttributeHTTPStatusCode  = attribute.Key("http.status_code")
)

// How long between each time OT sends something to the collector.
const batchTimeout = 5 * time.Second

// Initialize the OpenTelemetry library.
//
// You MUST call `Shutdown()` on the tracer provider before exiting,
// lest traces are not sent to the collector.
func New(ctx context.Context, serviceName string, collectorEndpointURL string) (*trace.TracerProvider, error) {
	otel.SetTextMapPropagator(newPropagator())

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.OSName(runtime.GOOS),
		semconv.ServiceVersion(version.Version()),
	)

	tracerProvider, err := newTraceProvider(ctx, res, collectorEndpointURL)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tracerProvider)

	return tracerProvider, nil
}

// Tracer returns the tracer of the globally registered provider.
// Spans are discarded until New() has been called.
func Tracer() otrace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Start a span, and return a function that ends it, recording the error if there is one.
func Start(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := Tracer().Start(ctx, name, otrace.WithAttributes(attributes...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// SetAttributes adds attributes to the span in ctx, if there is one.
func SetAttributes(ctx context.Context, attributes ...attribute.KeyValue) {
	otrace.SpanFromContext(ctx).SetAttributes(attributes...)
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func newTraceProvider(ctx context.Context, res *resource.Resource, endpointURL string) (*trace.TracerProvider, error) {
	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpointURL))
	if err != nil {
		return nil, err
	}

	traceProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter,
			trace.WithBatchTimeout(batchTimeout)),
		trace.WithResource(res),
	)

	return traceProvider, nil
}
