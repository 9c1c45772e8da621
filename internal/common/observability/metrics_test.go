package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithoutJaeger(t *testing.T) {
	o, err := New(Options{ServiceName: "provider-discovery-test"})
	require.NoError(t, err)
	defer o.Shutdown()

	ctx, span := o.Tracer("test").Start(context.Background(), "classify")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "search-providers", "completed")
		o.RecordJobDuration(ctx, "search-providers", 15*time.Millisecond, "completed")
	})
}

func TestNilObservability_IsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		_, span := o.Tracer("test").Start(context.Background(), "noop")
		span.End()
		o.RecordJobProcessed(context.Background(), "x", "failed")
	})
}
