package tracing

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	opentracing_ext "github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
)

// Start begins a span for operation as a child of whatever span ctx carries.
func Start(ctx context.Context, operation string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operation)
}

// Finish marks the span as failed when err is non-nil, then finishes it.
func Finish(span opentracing.Span, err error) {
	if err != nil {
		opentracing_ext.Error.Set(span, true)
		span.LogFields(otlog.Error(err))
	}
	span.Finish()
}
