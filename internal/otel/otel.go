// Package otel bridges eventbus events into OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hanpama/domainql/internal/eventbus"
	"github.com/hanpama/domainql/internal/events"
)

// Setup configures a tracer provider exporting to the given OTLP gRPC
// endpoint and subscribes span recorders to the global eventbus. The returned
// shutdown function flushes pending spans.
func Setup(ctx context.Context, endpoint, service string) (shutdown func(context.Context) error, err error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, err
	}
	res, err := sdkresource.New(ctx,
		sdkresource.WithAttributes(semconv.ServiceName(service)),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	subscribe(tp.Tracer("domainql"))
	return tp.Shutdown, nil
}

type spanStore struct {
	mu    sync.Mutex
	spans map[string]trace.Span
}

func newSpanStore() *spanStore { return &spanStore{spans: make(map[string]trace.Span)} }

func (s *spanStore) put(key string, span trace.Span) {
	s.mu.Lock()
	s.spans[key] = span
	s.mu.Unlock()
}

func (s *spanStore) take(key string) (trace.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	span, ok := s.spans[key]
	if ok {
		delete(s.spans, key)
	}
	return span, ok
}

func subscribe(tracer trace.Tracer) {
	httpSpans := newSpanStore()
	gqlSpans := newSpanStore()
	actionSpans := newSpanStore()

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		_, span := tracer.Start(ctx, "http.request", trace.WithAttributes(
			attribute.String("http.method", e.Method),
			attribute.String("http.path", e.Path),
			attribute.String("request.id", e.RequestID),
		))
		httpSpans.put(e.RequestID, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		if span, ok := httpSpans.take(e.RequestID); ok {
			span.SetAttributes(attribute.Int("http.status", e.Status))
			span.End()
		}
	})
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
		_, span := tracer.Start(ctx, "graphql.operation", trace.WithAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("request.id", e.RequestID),
		))
		gqlSpans.put(e.RequestID, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		if span, ok := gqlSpans.take(e.RequestID); ok {
			span.SetAttributes(attribute.Int("graphql.error.count", e.ErrorCount))
			span.End()
		}
	})
	eventbus.Subscribe(func(ctx context.Context, e events.SchemaGenerated) {
		_, span := tracer.Start(ctx, "schema.generate",
			trace.WithTimestamp(e.At.Add(-e.Duration)),
			trace.WithAttributes(
				attribute.String("domain.id", e.DomainID),
				attribute.Int("schema.type.count", e.TypeCount),
			))
		span.End(trace.WithTimestamp(e.At))
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ActionDispatch) {
		_, span := tracer.Start(ctx, "domain.action", trace.WithAttributes(
			attribute.String("domain.id", e.DomainID),
			attribute.String("domain.action", e.ActionID),
			attribute.String("request.id", e.RequestID),
		))
		actionSpans.put(e.RequestID+":"+e.ActionID, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ActionResult) {
		if span, ok := actionSpans.take(e.RequestID + ":" + e.ActionID); ok {
			span.SetAttributes(
				attribute.Bool("domain.action.success", e.Success),
				attribute.Int("domain.action.effects", e.EffectCount),
				attribute.Int("domain.action.errors", e.ErrorCount),
			)
			span.End()
		}
	})
}
