package tracewire

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransactionEvent(t *testing.T) *Event {
	t.Helper()

	tracestate, err := encodeTracestate(tracestatePayload{
		TraceID:     "12312012123120121231201212312012",
		PublicKey:   "key",
		Environment: "staging",
		Release:     "v1.2.3",
	})
	require.NoError(t, err)

	start := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return &Event{
		EventID:     "aaaabbbbccccddddaaaabbbbccccdddd",
		Type:        transactionType,
		Transaction: "GET /users",
		Contexts: map[string]TraceContext{
			"trace": {
				TraceID: "12312012123120121231201212312012",
				SpanID:  "1121201211212012",
				Op:      "http.server",
			},
		},
		StartTime:  start,
		Timestamp:  start.Add(time.Second),
		tracestate: tracestate,
	}
}

func TestEnvelopeFromTransaction(t *testing.T) {
	event := testTransactionEvent(t)
	sentAt := time.Date(2026, 8, 25, 12, 0, 2, 0, time.UTC)

	payload, err := envelopeFromTransaction(event, sentAt)
	require.NoError(t, err)

	assert.False(t, bytes.HasSuffix(payload, []byte("\n")), "no trailing newline")

	lines := bytes.Split(payload, []byte("\n"))
	require.Len(t, lines, 3)

	var header struct {
		EventID string            `json:"event_id"`
		SentAt  time.Time         `json:"sent_at"`
		TraceID string            `json:"trace_id"`
		Trace   tracestatePayload `json:"trace"`
	}
	require.NoError(t, json.Unmarshal(lines[0], &header))
	assert.Equal(t, "aaaabbbbccccddddaaaabbbbccccdddd", header.EventID)
	assert.True(t, header.SentAt.Equal(sentAt))
	assert.Equal(t, "12312012123120121231201212312012", header.TraceID)
	assert.Equal(t, "key", header.Trace.PublicKey)
	assert.Equal(t, "staging", header.Trace.Environment)
	assert.Equal(t, "v1.2.3", header.Trace.Release)

	assert.JSONEq(t, `{"type":"transaction"}`, string(lines[1]))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[2], &body))
	assert.Equal(t, "GET /users", body["transaction"])
	assert.NotContains(t, body, "tracestate",
		"tracestate is promoted to the envelope header, never in the body")
}

func TestEnvelopeTraceDegradesToEmptyString(t *testing.T) {
	event := testTransactionEvent(t)
	event.tracestate = "!!!not-base64!!!"

	payload, err := envelopeFromTransaction(event, time.Now())
	require.NoError(t, err, "a broken tracestate never aborts serialization")

	var header map[string]interface{}
	lines := bytes.Split(payload, []byte("\n"))
	require.NoError(t, json.Unmarshal(lines[0], &header))
	assert.Equal(t, "", header["trace"])
}

func TestEnvelopeFromSession(t *testing.T) {
	session := NewSession("v1.2.3", "staging", nil)
	session.End(SessionExited)

	sentAt := time.Date(2026, 8, 25, 12, 0, 2, 0, time.UTC)
	payload, err := envelopeFromSession(session, sentAt)
	require.NoError(t, err)

	assert.False(t, bytes.HasSuffix(payload, []byte("\n")))

	lines := bytes.Split(payload, []byte("\n"))
	require.Len(t, lines, 3)

	var header struct {
		SentAt time.Time `json:"sent_at"`
	}
	require.NoError(t, json.Unmarshal(lines[0], &header))
	assert.True(t, header.SentAt.Equal(sentAt))

	assert.JSONEq(t, `{"type":"session"}`, string(lines[1]))

	var body Session
	require.NoError(t, json.Unmarshal(lines[2], &body))
	assert.Equal(t, session.SID, body.SID)
	assert.Equal(t, SessionExited, body.Status)
	assert.Equal(t, "v1.2.3", body.Attrs.Release)
}

func TestMarshalEventBodyFlat(t *testing.T) {
	event := &Event{
		EventID:   "aaaabbbbccccddddaaaabbbbccccdddd",
		Message:   "something happened",
		Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	body, err := marshalEventBody(event)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "\n", "flat bodies are a single JSON document")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "something happened", decoded["message"])
	assert.NotContains(t, decoded, "start_timestamp",
		"events without a start time omit the field")
}
