// Package tracing provides OpenTelemetry span helpers for the ranking
// engine. The engine only creates spans; installing a tracer provider
// and exporters is the host process's concern.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies ranking-engine spans in the host's traces.
const tracerName = "feedrank/scoring"

// StartRankSpan creates a span for one ranking pass. Returns the new
// context and a function to end the span with the pass outcome.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartRankSpan(ctx, len(posts), snap.Version)
//	defer func() { endSpan(len(result.OrderedPostIDs), recovered) }()
func StartRankSpan(ctx context.Context, batchSize int, weightsVersion uint64) (context.Context, func(ranked, recovered int)) {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "rank",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("feedrank.batch_size", batchSize),
			attribute.Int64("feedrank.weights_version", int64(weightsVersion)),
		),
	)

	return ctx, func(ranked, recovered int) {
		span.SetAttributes(
			attribute.Int("feedrank.ranked", ranked),
			attribute.Int("feedrank.recovered_posts", recovered),
		)
		span.End()
	}
}

// StartMixSpan creates a span for one personalization interleave pass.
func StartMixSpan(ctx context.Context, feedSize int, targetRatio float64) (context.Context, func(discoveryPlaced int)) {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "mix",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("feedrank.feed_size", feedSize),
			attribute.Float64("feedrank.target_discovery_ratio", targetRatio),
		),
	)

	return ctx, func(discoveryPlaced int) {
		span.SetAttributes(attribute.Int("feedrank.discovery_placed", discoveryPlaced))
		span.End()
	}
}
