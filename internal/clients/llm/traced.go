package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/yungbote/interview-coach/internal/clients/llm"

type traced struct {
	next     Client
	provider string
	tracer   trace.Tracer
}

// WithTracing wraps c so each call runs in its own span.
func WithTracing(c Client, provider string) Client {
	return &traced{next: c, provider: provider, tracer: otel.Tracer(tracerName)}
}

func (t *traced) GenerateText(ctx context.Context, system string, user string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.GenerateText", trace.WithAttributes(
		attribute.String("llm.provider", t.provider),
	))
	defer span.End()
	out, err := t.next.GenerateText(ctx, system, user)
	record(span, err)
	return out, err
}

func (t *traced) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	ctx, span := t.tracer.Start(ctx, "llm.GenerateJSON", trace.WithAttributes(
		attribute.String("llm.provider", t.provider),
		attribute.String("llm.schema", schemaName),
	))
	defer span.End()
	out, err := t.next.GenerateJSON(ctx, system, user, schemaName, schema)
	record(span, err)
	return out, err
}

func record(span trace.Span, err error) {
	if err == nil {
		return
	}
	if f := AsFailure(err); f != nil {
		span.SetAttributes(attribute.String("llm.failure_kind", string(f.Kind)))
		if f.StatusCode != 0 {
			span.SetAttributes(attribute.Int("llm.status_code", f.StatusCode))
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
