package tracewire

import (
	"time"

	"github.com/zoobzio/clockz"
)

// SpanStatus describes how a span's unit of work ended.
type SpanStatus string

const (
	SpanStatusUndefined        SpanStatus = ""
	SpanStatusOK               SpanStatus = "ok"
	SpanStatusCancelled        SpanStatus = "cancelled"
	SpanStatusAborted          SpanStatus = "aborted"
	SpanStatusDeadlineExceeded SpanStatus = "deadline_exceeded"
	SpanStatusInternalError    SpanStatus = "internal_error"
	SpanStatusUnknown          SpanStatus = "unknown"
)

// Span represents a single timed unit of work in a distributed trace.
// Spans are NOT thread-safe - do not modify from multiple goroutines.
//
// A span goes from open (zero EndTime) to finished, and finished is
// terminal: Finish is a no-op the second time, and setters stop applying.
type Span struct {
	TraceID      string                 `json:"trace_id"`
	SpanID       string                 `json:"span_id"`
	ParentSpanID string                 `json:"parent_span_id,omitempty"`
	Op           string                 `json:"op,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Status       SpanStatus             `json:"status,omitempty"`
	Tags         map[string]string      `json:"tags,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	StartTime    time.Time              `json:"start_timestamp"`
	EndTime      time.Time              `json:"timestamp"`

	// Sampled is resolved once, when the owning transaction starts, and
	// propagates unconditionally to children.
	Sampled Sampled `json:"-"`

	// Non-owning handles. The recorder owns the span sequence; the
	// transaction reference is only followed for dispatch and lookups,
	// never for ownership.
	transaction *Transaction
	recorder    *spanRecorder
	clock       clockz.Clock
}

// Finished reports whether Finish has been called.
func (s *Span) Finished() bool {
	return !s.EndTime.IsZero()
}

// SetTag adds a key-value pair to the span. No-op once finished.
func (s *Span) SetTag(key, value string) {
	if s.Finished() {
		return
	}
	if s.Tags == nil {
		s.Tags = make(map[string]string)
	}
	s.Tags[key] = value
}

// SetData attaches arbitrary structured data to the span. No-op once
// finished.
func (s *Span) SetData(key string, value interface{}) {
	if s.Finished() {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]interface{})
	}
	s.Data[key] = value
}

// StartChild starts a child span under the same transaction. The child
// shares the trace id and the sampling decision, and is appended to the
// transaction's recorder. Starting children is valid before and after the
// transaction finishes; late children are still recorded.
func (s *Span) StartChild(op string) *Span {
	child := &Span{
		TraceID:      s.TraceID,
		SpanID:       newSpanID(),
		ParentSpanID: s.SpanID,
		Op:           op,
		Sampled:      s.Sampled,
		StartTime:    s.now(),
		transaction:  s.transaction,
		recorder:     s.recorder,
		clock:        s.clock,
	}
	if s.recorder != nil {
		s.recorder.add(child)
	}
	return child
}

// Finish marks the span as done. Safe to call multiple times - subsequent
// calls are no-ops.
func (s *Span) Finish() {
	s.FinishWithTime(time.Time{})
}

// FinishWithTime marks the span as done at the given time; a zero time
// means now.
func (s *Span) FinishWithTime(end time.Time) {
	if s.Finished() {
		return
	}
	if end.IsZero() {
		end = s.now()
	}
	s.EndTime = end
}

// Transaction returns the root of this span's trace, or nil for a detached
// span.
func (s *Span) Transaction() *Transaction {
	return s.transaction
}

// Traceparent renders the span's propagation header value for outgoing
// requests. The sampled segment is present only once a decision exists.
func (s *Span) Traceparent() string {
	switch s.Sampled {
	case SampledTrue:
		return s.TraceID + "-" + s.SpanID + "-1"
	case SampledFalse:
		return s.TraceID + "-" + s.SpanID + "-0"
	default:
		return s.TraceID + "-" + s.SpanID
	}
}

// traceContext is the span identity block embedded in the event's contexts.
func (s *Span) traceContext() TraceContext {
	return TraceContext{
		TraceID:      s.TraceID,
		SpanID:       s.SpanID,
		ParentSpanID: s.ParentSpanID,
		Op:           s.Op,
		Description:  s.Description,
		Status:       s.Status,
	}
}

func (s *Span) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return clockz.RealClock.Now()
}
