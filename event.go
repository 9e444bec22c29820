package tracewire

import (
	"encoding/json"
	"time"
)

// EventID identifies one captured event: 32 lowercase hex characters.
type EventID string

// transactionType marks events that carry a finished transaction and travel
// enveloped; any other type is sent as a flat body.
const transactionType = "transaction"

// TraceContext is the trace identity block embedded under contexts.trace in
// a serialized event.
type TraceContext struct {
	TraceID      string     `json:"trace_id"`
	SpanID       string     `json:"span_id"`
	ParentSpanID string     `json:"parent_span_id,omitempty"`
	Op           string     `json:"op,omitempty"`
	Description  string     `json:"description,omitempty"`
	Status       SpanStatus `json:"status,omitempty"`
}

// Measurement is a named numeric observation attached to a transaction.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Event is the assembled outbound record of a finished transaction or a
// plain message. The tracestate rides outside the JSON body: the envelope
// serializer promotes it into the envelope header instead.
type Event struct {
	EventID      EventID                 `json:"event_id"`
	Type         string                  `json:"type,omitempty"`
	Transaction  string                  `json:"transaction,omitempty"`
	Message      string                  `json:"message,omitempty"`
	Release      string                  `json:"release,omitempty"`
	Environment  string                  `json:"environment,omitempty"`
	Contexts     map[string]TraceContext `json:"contexts,omitempty"`
	Spans        []*Span                 `json:"spans,omitempty"`
	Tags         map[string]string       `json:"tags,omitempty"`
	Measurements map[string]Measurement  `json:"measurements,omitempty"`
	StartTime    time.Time               `json:"start_timestamp"`
	Timestamp    time.Time               `json:"timestamp"`

	tracestate string
}

// MarshalJSON drops start_timestamp for events that never had one:
// omitempty does not apply to struct-typed time values.
func (e *Event) MarshalJSON() ([]byte, error) {
	type alias Event
	if e.StartTime.IsZero() {
		return json.Marshal(struct {
			*alias
			StartTime json.RawMessage `json:"start_timestamp,omitempty"`
		}{alias: (*alias)(e)})
	}
	return json.Marshal((*alias)(e))
}

// traceID returns the event's trace id, empty when no trace context is
// attached.
func (e *Event) traceID() string {
	if tc, ok := e.Contexts["trace"]; ok {
		return tc.TraceID
	}
	return ""
}
