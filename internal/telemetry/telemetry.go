// Package telemetry wires the shared OpenTelemetry tracer and counters used
// by the publish and streaming paths, grounded on the producer/consumer
// spans the Kafka SDK's tracing middleware builds around a single
// per-service Tracer plus a handful of messaging.* attributes.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rzbill/flo"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	publishItems  metric.Int64Counter
	publishErrors metric.Int64Counter
	streamConsumers metric.Int64UpDownCounter
)

func init() {
	// Instrument creation against the default (no-op until a SDK is
	// registered by the process) MeterProvider never fails in practice;
	// errors here would only indicate a duplicate-registration bug.
	publishItems, _ = meter.Int64Counter("eventcore.publish.items",
		metric.WithDescription("batch items that ended SUBMITTED"))
	publishErrors, _ = meter.Int64Counter("eventcore.publish.errors",
		metric.WithDescription("batch items that ended FAILED"))
	streamConsumers, _ = meter.Int64UpDownCounter("eventcore.stream.consumers",
		metric.WithDescription("active streaming consumers per event type"))
}

// StartPublishSpan opens a span for one SyncPostBatch call.
func StartPublishSpan(ctx context.Context, topic string, batchSize int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "topicrepo.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.operation", "publish"),
			attribute.Int("kafka.batch_size", batchSize),
		),
	)
}

// RecordPublishOutcome increments the publish item/error counters and, on
// failure, records the error against span.
func RecordPublishOutcome(ctx context.Context, span trace.Span, submitted, failed int, err error) {
	publishItems.Add(ctx, int64(submitted))
	if failed > 0 {
		publishErrors.Add(ctx, int64(failed))
	}
	if err != nil && span.IsRecording() {
		span.RecordError(err)
	}
}

// StartStreamSpan opens a span for one streaming session.
func StartStreamSpan(ctx context.Context, eventType string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "streamctl.stream",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.operation", "receive"),
			attribute.String("kafka.event_type", eventType),
		),
	)
}

// IncStreamConsumers adjusts the active-consumer gauge by delta (+1 on
// admission, -1 on cleanup).
func IncStreamConsumers(ctx context.Context, eventType string, delta int64) {
	streamConsumers.Add(ctx, delta, metric.WithAttributes(attribute.String("kafka.event_type", eventType)))
}
