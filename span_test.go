package tracewire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestSpanSetTag(t *testing.T) {
	span := &Span{
		TraceID:   "12312012123120121231201212312012",
		SpanID:    "1121201211212012",
		StartTime: time.Now(),
	}

	span.SetTag("key1", "value1")
	span.SetTag("key2", "value2")

	assert.Equal(t, map[string]string{"key1": "value1", "key2": "value2"}, span.Tags)
}

func TestSpanSettersNoOpAfterFinish(t *testing.T) {
	span := &Span{StartTime: time.Now()}
	span.Finish()

	span.SetTag("late", "tag")
	span.SetData("late", 1)

	assert.Nil(t, span.Tags)
	assert.Nil(t, span.Data)
}

func TestSpanFinishIdempotent(t *testing.T) {
	clock := clockz.NewFakeClock()
	span := &Span{StartTime: clock.Now(), clock: clock}

	clock.Advance(10 * time.Millisecond)
	span.Finish()
	first := span.EndTime
	require.True(t, span.Finished())

	clock.Advance(50 * time.Millisecond)
	span.Finish()
	assert.Equal(t, first, span.EndTime)
}

func TestSpanFinishWithExplicitTime(t *testing.T) {
	end := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	span := &Span{StartTime: end.Add(-time.Second)}

	span.FinishWithTime(end)
	assert.Equal(t, end, span.EndTime)
}

func TestStartChildInheritance(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{TracesSampleRate: 1.0})
	client.rng = rngReturning(0)
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "parent", "http.server")
	require.Equal(t, SampledTrue, tx.Sampled)

	child := tx.StartChild("db.query")
	assert.Equal(t, tx.TraceID, child.TraceID)
	assert.Equal(t, tx.SpanID, child.ParentSpanID)
	assert.Equal(t, tx.Sampled, child.Sampled)
	assert.NotEqual(t, tx.SpanID, child.SpanID)
	assert.Len(t, child.SpanID, 16)

	// Grandchildren chain the same way.
	grandchild := child.StartChild("db.decode")
	assert.Equal(t, tx.TraceID, grandchild.TraceID)
	assert.Equal(t, child.SpanID, grandchild.ParentSpanID)
	assert.Equal(t, tx.Sampled, grandchild.Sampled)

	assert.Same(t, tx, child.Transaction())
	assert.Same(t, tx, grandchild.Transaction())
}

func TestStartChildUnsampledInheritance(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{})
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "parent", "test")
	require.Equal(t, SampledFalse, tx.Sampled)

	child := tx.StartChild("op")
	assert.Equal(t, SampledFalse, child.Sampled)
}

func TestStartChildAfterTransactionFinish(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{TracesSampleRate: 1.0})
	client.rng = rngReturning(0)
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "done", "test")
	tx.Finish()

	// Late children are still recorded.
	child := tx.StartChild("late")
	assert.Contains(t, tx.recorder.spans, child)
}

func TestTraceparent(t *testing.T) {
	span := &Span{
		TraceID: "12312012123120121231201212312012",
		SpanID:  "1121201211212012",
	}

	assert.Equal(t, "12312012123120121231201212312012-1121201211212012", span.Traceparent())

	span.Sampled = SampledTrue
	assert.Equal(t, "12312012123120121231201212312012-1121201211212012-1", span.Traceparent())

	span.Sampled = SampledFalse
	assert.Equal(t, "12312012123120121231201212312012-1121201211212012-0", span.Traceparent())
}

func TestTraceparentRoundTrip(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{TracesSampleRate: 1.0})
	client.rng = rngReturning(0)
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "outgoing", "http.client")
	data, ok := ParseTraceparent(tx.Traceparent())
	require.True(t, ok)
	assert.Equal(t, tx.TraceID, data.TraceID)
	assert.Equal(t, tx.SpanID, data.ParentSpanID)
	assert.Equal(t, SampledTrue, data.ParentSampled)
}
