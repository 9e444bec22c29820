package tracewire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Envelope wire grammar: newline-delimited JSON lines, no trailing newline.
// A transaction travels as header, item header, body; a session the same
// with a minimal header; every other event kind travels as a flat body to
// the store endpoint.

var newline = []byte("\n")

// transactionEnvelopeHeader is the first line of a transaction envelope.
// Trace holds the decoded tracestate payload, promoted out of the event
// body, or the empty string when decoding failed.
type transactionEnvelopeHeader struct {
	EventID EventID     `json:"event_id"`
	SentAt  time.Time   `json:"sent_at"`
	TraceID string      `json:"trace_id,omitempty"`
	Trace   interface{} `json:"trace"`
}

type itemHeader struct {
	Type string `json:"type"`
}

// envelopeFromTransaction serializes a finished, sampled transaction event
// into its three-line envelope.
func envelopeFromTransaction(event *Event, sentAt time.Time) ([]byte, error) {
	// The event body never carries the tracestate; its decoded form lives
	// in the envelope header. A failed decode degrades to "".
	var trace interface{} = ""
	if p, err := decodeTracestate(event.tracestate); err == nil {
		trace = p
	}

	header, err := json.Marshal(transactionEnvelopeHeader{
		EventID: event.EventID,
		SentAt:  sentAt,
		TraceID: event.traceID(),
		Trace:   trace,
	})
	if err != nil {
		return nil, fmt.Errorf("envelope header: %w", err)
	}
	item, err := json.Marshal(itemHeader{Type: transactionType})
	if err != nil {
		return nil, fmt.Errorf("envelope item header: %w", err)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("envelope body: %w", err)
	}
	return bytes.Join([][]byte{header, item, body}, newline), nil
}

// sessionEnvelopeHeader is the first line of a session envelope.
type sessionEnvelopeHeader struct {
	SentAt time.Time `json:"sent_at"`
}

// envelopeFromSession serializes a session payload.
func envelopeFromSession(session *Session, sentAt time.Time) ([]byte, error) {
	header, err := json.Marshal(sessionEnvelopeHeader{SentAt: sentAt})
	if err != nil {
		return nil, fmt.Errorf("envelope header: %w", err)
	}
	item, err := json.Marshal(itemHeader{Type: "session"})
	if err != nil {
		return nil, fmt.Errorf("envelope item header: %w", err)
	}
	body, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("envelope body: %w", err)
	}
	return bytes.Join([][]byte{header, item, body}, newline), nil
}

// marshalEventBody serializes a non-transaction event as a flat body.
func marshalEventBody(event *Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("event body: %w", err)
	}
	return body, nil
}
