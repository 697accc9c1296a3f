package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestDispatchSpan(t *testing.T) {
	assert := assert.New(t)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	eng := EngineTestFixture()
	eng.Dispatch(context.Background(), groupText(TestOwner, ".ping"))
	eng.Wait()

	spans := rec.Ended()
	if assert.Equal(1, len(spans)) {
		span := spans[0]
		assert.Equal("ProcessMessage", span.Name())
		assert.Equal(trace.SpanKindConsumer, span.SpanKind())
		// a root span, opened inside the dispatched task
		assert.False(span.Parent().IsValid())
	}
}
