package tracewire

import (
	"time"

	"go.uber.org/zap"
)

// placeholderTransactionName substitutes for transactions finished without a
// name, so the destination never receives an unnamed event.
const placeholderTransactionName = "<unlabeled transaction>"

// Transaction is the root span of a trace. It carries a mutable name, the
// tracestate header value computed exactly once at construction, and the
// measurements attached to the finished event. Finishing a sampled
// transaction assembles the event and hands it to the hub's client; the hub
// reference is non-owning and used only for that dispatch.
type Transaction struct {
	Span

	// Name is the logical name of the unit of work, e.g. "GET /users".
	Name string

	tracestate   string
	measurements map[string]Measurement
	trimEnd      bool
	hub          *Hub
}

// SetName renames the transaction. No-op once finished.
func (t *Transaction) SetName(name string) {
	if t.Finished() {
		return
	}
	t.Name = name
}

// SetMeasurement records a named numeric observation, overwriting any
// previous value under the same name. No-op once finished.
func (t *Transaction) SetMeasurement(name string, value float64, unit string) {
	if t.Finished() {
		return
	}
	if t.measurements == nil {
		t.measurements = make(map[string]Measurement)
	}
	t.measurements[name] = Measurement{Value: value, Unit: unit}
}

// Tracestate returns the propagation header value computed at construction.
// Empty when the hub had no client or no DSN at that point.
func (t *Transaction) Tracestate() string {
	return t.tracestate
}

// TrimEnd reports whether the end time is trimmed to the children on finish.
func (t *Transaction) TrimEnd() bool {
	return t.trimEnd
}

// Finish ends the transaction and, if it was sampled, dispatches the
// assembled event through the hub's client. The returned event id is nil
// when nothing was dispatched. Only the first call can dispatch; repeated
// calls are no-ops.
func (t *Transaction) Finish() *EventID {
	return t.FinishWithTime(time.Time{})
}

// FinishWithTime is Finish with an explicit end time; a zero time means now.
func (t *Transaction) FinishWithTime(end time.Time) *EventID {
	if t.Finished() {
		return nil
	}

	logger := t.logger()
	if t.Name == "" {
		logger.Warn("finishing transaction without a name, using placeholder",
			zap.String("trace_id", t.TraceID))
		t.Name = placeholderTransactionName
	}

	if end.IsZero() {
		end = t.now()
	}
	t.EndTime = end

	client := t.client()
	if client != nil && t.recorder != nil {
		if dropped := t.recorder.droppedCount(); dropped > 0 {
			client.metrics.droppedSpans.Add(float64(dropped))
		}
	}

	if t.Sampled != SampledTrue {
		logger.Debug("discarding unsampled transaction",
			zap.String("transaction", t.Name),
			zap.String("trace_id", t.TraceID))
		return nil
	}

	var children []*Span
	if t.recorder != nil {
		children = t.recorder.finishedChildren(&t.Span)
	}

	// Trim the end time to the latest finished child. Children normally
	// complete before their transaction, so this shrinks the recorded
	// duration toward real work done.
	if t.trimEnd && len(children) > 0 {
		latest := children[0].EndTime
		for _, s := range children[1:] {
			if s.EndTime.After(latest) {
				latest = s.EndTime
			}
		}
		t.EndTime = latest
	}

	if client == nil {
		logger.Debug("transaction finished without a client, event discarded",
			zap.String("transaction", t.Name))
		return nil
	}
	return client.CaptureEvent(t.toEvent(children))
}

// toEvent assembles the outbound event from the finished transaction.
func (t *Transaction) toEvent(children []*Span) *Event {
	event := &Event{
		EventID:     newEventID(),
		Type:        transactionType,
		Transaction: t.Name,
		Contexts:    map[string]TraceContext{"trace": t.traceContext()},
		Spans:       children,
		Tags:        t.Tags,
		StartTime:   t.StartTime,
		Timestamp:   t.EndTime,
		tracestate:  t.tracestate,
	}
	if len(t.measurements) > 0 {
		event.Measurements = t.measurements
	}
	if client := t.client(); client != nil {
		event.Release = client.options.Release
		event.Environment = client.options.Environment
	}
	return event
}

func (t *Transaction) client() *Client {
	if t.hub == nil {
		return nil
	}
	return t.hub.Client()
}

func (t *Transaction) logger() *zap.Logger {
	if c := t.client(); c != nil {
		return c.logger
	}
	return zap.NewNop()
}
