package agentview

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// annotateSpan records one span event on the caller's active span per decoded
// protocol event, so hosts can correlate stream reconstruction with the
// request trace that opened the stream. No-op without a valid span context.
func annotateSpan(ctx context.Context, ev Event) {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("event.kind", string(ev.Kind)),
	}
	if ev.ToolCallID != "" {
		attrs = append(attrs, attribute.String("tool.call_id", ev.ToolCallID))
	}
	if ev.ItemID != "" {
		attrs = append(attrs, attribute.String("tool.item_id", ev.ItemID))
	}
	span.AddEvent("trace_stream.event", trace.WithAttributes(attrs...))
}
