// Package tracewire implements the client core of a distributed tracing SDK:
// the sampling decision engine, the span/transaction lifecycle, trace-context
// propagation headers, and envelope serialization for the outbound wire.
//
// Core Components:
//   - Hub: entry point; holds the client and the active scope.
//   - Client: configuration surface; serializes and dispatches finished events.
//   - Transaction: the root span of a trace; carries a name and the
//     propagation header values.
//   - Span: a single timed unit of work inside a transaction.
//   - Transport: the outbound boundary; payloads are fire-and-forget.
//
// Basic Usage:
//
//	client, err := tracewire.NewClient(tracewire.ClientOptions{
//		Dsn:              "https://key@trace.example.com/42",
//		TracesSampleRate: 0.2,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	hub := tracewire.NewHub(client)
//
//	tx := hub.StartTransaction(ctx, "GET /users", "http.server")
//	defer tx.Finish()
//
//	span := tx.StartChild("db.query")
//	span.Description = "SELECT * FROM users"
//	// ... do the work ...
//	span.Finish()
//
// Trace Continuation:
//
// Incoming requests carry the caller's trace in the trace-parent header.
// Passing it through ContinueFromTrace keeps the trace id and inherits the
// caller's sampling decision:
//
//	tx := hub.StartTransaction(ctx, name, "http.server",
//		tracewire.ContinueFromTrace(r.Header.Get(tracewire.TraceparentHeader)))
//
// Thread Safety:
//
// Hubs and scopes are safe for concurrent use. Spans and transactions are
// NOT thread-safe - do not mutate the same span from multiple goroutines.
// Per-request isolation is the caller's job: give each logical context its
// own hub (Hub.Clone) via SetHubOnContext.
//
// Failure Model:
//
// Nothing in this package panics or returns an error across the capture
// path. Invalid sample rates, malformed propagation headers, and encoding
// failures all degrade tracing fidelity (a warning is logged, the decision
// falls back to unsampled, or the header is skipped) instead of surfacing
// to calling code.
package tracewire
