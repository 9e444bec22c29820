package tracewire

import (
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// ClientOptions configures a Client. The zero value is a valid disabled
// client: no DSN means every capture is discarded.
type ClientOptions struct {
	// Dsn locates the destination for captured events. Empty disables
	// capture without disabling the span machinery.
	Dsn string
	// Release and Environment label outbound events and the propagated
	// tracestate.
	Release     string
	Environment string
	// TracesSampleRate is the fixed sampling probability. It may be a bool
	// or any numeric type in [0,1]; nil means unset. Invalid values log a
	// warning and sample nothing.
	TracesSampleRate interface{}
	// TracesSampler, when set, decides sampling per transaction and takes
	// precedence over inherited parent decisions and TracesSampleRate.
	TracesSampler TracesSampler
	// MaxSpans caps the spans recorded per transaction. Defaults to 1000.
	MaxSpans int
	// Transport overrides the outbound delivery mechanism.
	Transport Transport
	// Logger receives warnings about degraded tracing. Defaults to no-op.
	Logger *zap.Logger
	// Clock substitutes the time source for deterministic testing.
	Clock clockz.Clock
	// Registerer, when set, exposes the client's counters.
	Registerer prometheus.Registerer
}

// Client resolves sampling, serializes finished events, and hands payloads
// to the transport. Safe for concurrent use once constructed.
type Client struct {
	options   ClientOptions
	dsn       *Dsn
	transport Transport
	logger    *zap.Logger
	clock     clockz.Clock
	metrics   *clientMetrics

	// rng drives probabilistic sampling; substituted in tests.
	rng func() float64
}

// NewClient builds a client from options. The only hard failure is a
// malformed, non-empty DSN.
func NewClient(options ClientOptions) (*Client, error) {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := options.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	var dsn *Dsn
	if options.Dsn != "" {
		parsed, err := NewDsn(options.Dsn)
		if err != nil {
			return nil, err
		}
		dsn = parsed
	}

	transport := options.Transport
	if transport == nil {
		if dsn == nil {
			transport = noopTransport{}
		} else {
			ht := NewHTTPTransport(0, 0)
			ht.Logger = logger
			transport = ht
		}
	}

	return &Client{
		options:   options,
		dsn:       dsn,
		transport: transport,
		logger:    logger,
		clock:     clock,
		metrics:   newClientMetrics(options.Registerer),
		rng:       rand.Float64,
	}, nil
}

// Options returns the options the client was built with.
func (c *Client) Options() ClientOptions {
	return c.options
}

// Dsn returns the parsed destination identifier, nil when capture is
// disabled.
func (c *Client) Dsn() *Dsn {
	return c.dsn
}

// CaptureEvent serializes an event and hands it to the transport, returning
// the event id, or nil when nothing was dispatched.
func (c *Client) CaptureEvent(event *Event) *EventID {
	if event == nil {
		return nil
	}
	if c.dsn == nil {
		c.logger.Debug("no DSN configured, event discarded")
		return nil
	}
	if event.EventID == "" {
		event.EventID = newEventID()
	}

	p, err := c.payloadFromEvent(event)
	if err != nil {
		c.logger.Warn("event serialization failed, event discarded", zap.Error(err))
		return nil
	}
	c.transport.SendPayload(p)
	c.metrics.payloadsSent.Inc()

	id := event.EventID
	return &id
}

// CaptureMessage captures a plain message event; it travels as a flat body
// to the store endpoint.
func (c *Client) CaptureMessage(message string) *EventID {
	return c.CaptureEvent(&Event{
		Message:     message,
		Release:     c.options.Release,
		Environment: c.options.Environment,
		Timestamp:   c.clock.Now(),
	})
}

// CaptureSession sends a release-health session payload.
func (c *Client) CaptureSession(session *Session) {
	if session == nil || c.dsn == nil {
		return
	}
	body, err := envelopeFromSession(session, c.clock.Now())
	if err != nil {
		c.logger.Warn("session serialization failed, session discarded", zap.Error(err))
		return
	}
	c.transport.SendPayload(Payload{
		URL:     c.dsn.EnvelopeAPIURL(),
		Headers: c.dsn.RequestHeaders(),
		Body:    body,
	})
	c.metrics.payloadsSent.Inc()
}

// payloadFromEvent picks the wire shape and endpoint by event kind:
// transactions travel enveloped, everything else as a flat body.
func (c *Client) payloadFromEvent(event *Event) (Payload, error) {
	if event.Type == transactionType {
		body, err := envelopeFromTransaction(event, c.clock.Now())
		if err != nil {
			return Payload{}, err
		}
		return Payload{
			URL:     c.dsn.EnvelopeAPIURL(),
			Headers: c.dsn.RequestHeaders(),
			Body:    body,
		}, nil
	}

	body, err := marshalEventBody(event)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		URL:     c.dsn.StoreAPIURL(),
		Headers: c.dsn.RequestHeaders(),
		Body:    body,
	}, nil
}

// Flush waits for queued payloads to be delivered.
func (c *Client) Flush(timeout time.Duration) bool {
	return c.transport.Flush(timeout)
}

// Close shuts down the transport.
func (c *Client) Close() {
	c.transport.Close()
}
