package tracewire

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// ctxKeyType is a private type for context keys to avoid collisions.
type ctxKeyType string

const (
	hubCtxKey  ctxKeyType = "tracewire.hub"
	spanCtxKey ctxKeyType = "tracewire.span"
)

// Hub holds the current client and the active scope; it is the entry point
// applications use to start transactions and the exit point finished events
// leave through. There is no package-level current hub: callers pass hubs
// explicitly or stash them on a context with SetHubOnContext.
//
// Hubs are safe for concurrent use; give each logical request its own
// Clone so concurrent contexts do not share a scope.
type Hub struct {
	mu     sync.RWMutex
	client *Client
	scope  *Scope
}

// NewHub creates a hub bound to a client. A nil client yields a hub whose
// transactions are never sampled or dispatched.
func NewHub(client *Client) *Hub {
	return &Hub{
		client: client,
		scope:  &Scope{},
	}
}

// Client returns the bound client, which may be nil.
func (h *Hub) Client() *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client
}

// Scope returns the hub's active scope.
func (h *Hub) Scope() *Scope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scope
}

// Clone returns a hub sharing the client but with a fresh scope, for
// isolating a new logical context.
func (h *Hub) Clone() *Hub {
	return NewHub(h.Client())
}

// Flush delegates to the client's transport. No-op without a client.
func (h *Hub) Flush(timeout time.Duration) bool {
	if c := h.Client(); c != nil {
		return c.Flush(timeout)
	}
	return true
}

// Scope holds the active span of one logical context.
type Scope struct {
	mu   sync.RWMutex
	span *Span
}

// SetSpan makes the given span the scope's active span.
func (s *Scope) SetSpan(span *Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.span = span
}

// Span returns the scope's active span, or nil.
func (s *Scope) Span() *Span {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.span
}

// Transaction returns the transaction owning the active span, or nil.
func (s *Scope) Transaction() *Transaction {
	if span := s.Span(); span != nil {
		return span.transaction
	}
	return nil
}

// transactionOptions collects per-StartTransaction settings.
type transactionOptions struct {
	traceID       string
	parentSpanID  string
	parentSampled Sampled
	sampled       Sampled
	trimEnd       bool
	startTime     time.Time
	request       *RequestInfo
	location      string
}

// TransactionOption configures StartTransaction.
type TransactionOption func(*transactionOptions)

// ContinueFromTrace picks up an incoming trace-parent header: the new
// transaction joins the caller's trace and inherits its sampling decision
// (unless a custom sampler overrides it). A malformed header is ignored and
// a new trace begins.
func ContinueFromTrace(traceparent string) TransactionOption {
	return func(o *transactionOptions) {
		data, ok := ParseTraceparent(traceparent)
		if !ok {
			return
		}
		o.traceID = data.TraceID
		o.parentSpanID = data.ParentSpanID
		o.parentSampled = data.ParentSampled
	}
}

// WithSampled forces the sampling decision, overriding every other source.
func WithSampled(sampled Sampled) TransactionOption {
	return func(o *transactionOptions) {
		o.sampled = sampled
	}
}

// WithTrimEnd trims the transaction's end time to its latest finished child
// on finish.
func WithTrimEnd() TransactionOption {
	return func(o *transactionOptions) {
		o.trimEnd = true
	}
}

// WithStartTime overrides the transaction's start time.
func WithStartTime(t time.Time) TransactionOption {
	return func(o *transactionOptions) {
		o.startTime = t
	}
}

// WithRequestData passes pre-normalized request data to a custom sampler.
func WithRequestData(r *RequestInfo) TransactionOption {
	return func(o *transactionOptions) {
		o.request = r
	}
}

// WithLocation passes the browser/worker location to a custom sampler.
func WithLocation(location string) TransactionOption {
	return func(o *transactionOptions) {
		o.location = location
	}
}

// StartTransaction creates the root span of a new trace, resolves its
// sampling decision, and computes its tracestate header exactly once. When
// the context already carries a span and no explicit continuation is given,
// the new transaction joins that span's trace.
//
// The caller owns attaching the transaction to a scope or a context; this
// package never mutates ambient state.
func (h *Hub) StartTransaction(ctx context.Context, name, op string, opts ...TransactionOption) *Transaction {
	var o transactionOptions
	for _, opt := range opts {
		opt(&o)
	}

	if parent := SpanFromContext(ctx); parent != nil && o.traceID == "" {
		o.traceID = parent.TraceID
		o.parentSpanID = parent.SpanID
		o.parentSampled = parent.Sampled
	}

	client := h.Client()

	var clock clockz.Clock = clockz.RealClock
	logger := zap.NewNop()
	if client != nil {
		clock = client.clock
		logger = client.logger
	}

	if o.traceID == "" {
		o.traceID = newTraceID()
	}
	if o.startTime.IsZero() {
		o.startTime = clock.Now()
	}

	t := &Transaction{
		Span: Span{
			TraceID:      o.traceID,
			SpanID:       newSpanID(),
			ParentSpanID: o.parentSpanID,
			Op:           op,
			Sampled:      o.sampled,
			StartTime:    o.startTime,
			clock:        clock,
		},
		Name:    name,
		trimEnd: o.trimEnd,
		hub:     h,
	}
	t.Span.transaction = t

	maxSpans := 0
	if client != nil {
		maxSpans = client.options.MaxSpans
	}
	t.initRecorder(maxSpans)

	t.Sampled = resolveSampled(SamplingContext{
		Transaction: t,
		Parent:      o.parentSampled,
		Request:     o.request,
		Location:    o.location,
	}, client)

	if client != nil {
		client.metrics.samplingDecisions.WithLabelValues(t.Sampled.String()).Inc()

		// The tracestate is computed exactly once, here; it needs a DSN for
		// the public key. Without one, propagation is simply skipped.
		if client.dsn != nil {
			ts, err := encodeTracestate(tracestatePayload{
				TraceID:     t.TraceID,
				PublicKey:   client.dsn.PublicKey(),
				Environment: client.options.Environment,
				Release:     client.options.Release,
			})
			if err != nil {
				logger.Warn("tracestate encoding failed, propagation skipped", zap.Error(err))
				ts = ""
			}
			t.tracestate = ts
		}
	}

	return t
}

// initRecorder binds the transaction's recorder and records the transaction
// itself as the first entry. Idempotent: a second call is a no-op.
func (t *Transaction) initRecorder(maxSpans int) {
	if t.recorder != nil {
		return
	}
	t.recorder = newSpanRecorder(maxSpans)
	t.recorder.add(&t.Span)
}

// SetHubOnContext stores a hub on the context.
func SetHubOnContext(ctx context.Context, hub *Hub) context.Context {
	return context.WithValue(ctx, hubCtxKey, hub)
}

// HubFromContext extracts the hub from a context, or nil.
func HubFromContext(ctx context.Context) *Hub {
	if ctx == nil {
		return nil
	}
	if hub, ok := ctx.Value(hubCtxKey).(*Hub); ok {
		return hub
	}
	return nil
}

// ContextWithSpan stores a span on the context so child operations can find
// their parent.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanCtxKey, span)
}

// SpanFromContext extracts the current span from a context, or nil.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	if span, ok := ctx.Value(spanCtxKey).(*Span); ok {
		return span
	}
	return nil
}

// TransactionFromContext extracts the transaction owning the context's
// span, or nil.
func TransactionFromContext(ctx context.Context) *Transaction {
	if span := SpanFromContext(ctx); span != nil {
		return span.transaction
	}
	return nil
}
