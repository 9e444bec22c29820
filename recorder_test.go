package tracewire

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsInsertionOrder(t *testing.T) {
	r := newSpanRecorder(10)
	root := &Span{SpanID: "root"}
	r.add(root)

	for i := 0; i < 3; i++ {
		r.add(&Span{SpanID: fmt.Sprintf("child-%d", i)})
	}

	require.Len(t, r.spans, 4)
	assert.Same(t, root, r.root())
	assert.Equal(t, "child-0", r.spans[1].SpanID)
	assert.Equal(t, "child-2", r.spans[3].SpanID)
}

func TestRecorderDropsPastCap(t *testing.T) {
	r := newSpanRecorder(3)
	root := &Span{SpanID: "root"}
	r.add(root)

	for i := 0; i < 10; i++ {
		r.add(&Span{SpanID: fmt.Sprintf("child-%d", i)})
	}

	assert.Len(t, r.spans, 3)
	assert.Same(t, root, r.root(), "dropping must preserve the root entry")
	assert.True(t, r.dropping)
	assert.Equal(t, uint64(8), r.droppedCount())
}

func TestRecorderDefaultCap(t *testing.T) {
	r := newSpanRecorder(0)
	assert.Equal(t, defaultMaxSpans, r.maxSpans)
}

func TestRecorderFinishedChildren(t *testing.T) {
	r := newSpanRecorder(10)
	root := &Span{SpanID: "root"}
	finished := &Span{SpanID: "finished", EndTime: time.Now()}
	open := &Span{SpanID: "open"}
	r.add(root)
	r.add(finished)
	r.add(open)

	children := r.finishedChildren(root)
	require.Len(t, children, 1)
	assert.Same(t, finished, children[0])
}

func TestRecorderBindIdempotent(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{})
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "bind", "test")
	first := tx.recorder
	require.NotNil(t, first)
	require.Same(t, &tx.Span, first.root())

	tx.initRecorder(5)
	assert.Same(t, first, tx.recorder)
}

func TestRecorderCapFromClientOptions(t *testing.T) {
	client, _ := newTestClient(t, ClientOptions{MaxSpans: 2})
	hub := NewHub(client)

	tx := hub.StartTransaction(context.Background(), "capped", "test")
	a := tx.StartChild("kept")
	tx.StartChild("dropped")

	assert.Equal(t, []*Span{&tx.Span, a}, tx.recorder.spans)
	assert.Equal(t, uint64(1), tx.recorder.droppedCount())
}
