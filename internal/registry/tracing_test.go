package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	ctx := context.Background()

	reg, err := New(ctx, owner, WithTracer(tp.Tracer(TracerName)))
	require.NoError(t, err)

	_, err = reg.AddNode(ctx, stranger, "https://a")
	require.NoError(t, err)
	require.Error(t, reg.ApproveNode(ctx, stranger, "https://a"))

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "registry.New", spans[0].Name())
	assert.Equal(t, "registry.AddNode", spans[1].Name())
	assert.Equal(t, "registry.ApproveNode", spans[2].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[1].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "https://a", attrs["registry.url"].AsString())
	assert.Equal(t, string(stranger), attrs["registry.caller"].AsString())
	assert.False(t, attrs["registry.approved"].AsBool())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)

	assert.Equal(t, codes.Error, spans[2].Status().Code)
	assert.Equal(t, string(CodePermissionDenied), spans[2].Status().Description)
}
