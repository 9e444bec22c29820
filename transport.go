package tracewire

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Payload is one serialized outbound request: a body and where to POST it.
type Payload struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Transport is the boundary to the delivery collaborator. Sends are
// fire-and-forget from the core's perspective: delivery guarantees, retries,
// and persistence all live behind this interface.
type Transport interface {
	SendPayload(p Payload)
	// Flush blocks until payloads accepted so far are sent, or the timeout
	// elapses. Reports whether the queue drained in time.
	Flush(timeout time.Duration) bool
	Close()
}

const (
	defaultTransportWorkers = 2
	defaultTransportQueue   = 100
)

// HTTPTransport posts payloads from a bounded queue using a fixed set of
// worker goroutines. When the queue is full the payload is dropped and
// counted, never blocking the caller.
type HTTPTransport struct {
	// Logger receives send failures. Defaults to a no-op logger.
	Logger *zap.Logger

	client  *http.Client
	queue   chan Payload
	stop    chan struct{}
	wg      sync.WaitGroup
	pending sync.WaitGroup
	dropped atomic.Uint64
	once    sync.Once
}

// NewHTTPTransport creates a transport with the given worker count and
// queue size; zero or negative values select the defaults.
func NewHTTPTransport(workers, queueSize int) *HTTPTransport {
	if workers <= 0 {
		workers = defaultTransportWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultTransportQueue
	}

	t := &HTTPTransport{
		client: &http.Client{Timeout: 30 * time.Second},
		queue:  make(chan Payload, queueSize),
		stop:   make(chan struct{}),
	}

	t.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go t.run()
	}
	return t
}

// SendPayload enqueues a payload for delivery, dropping it when the queue
// is full.
func (t *HTTPTransport) SendPayload(p Payload) {
	t.pending.Add(1)
	select {
	case t.queue <- p:
	default:
		// Queue full - drop the payload to avoid blocking the caller.
		t.pending.Done()
		t.dropped.Add(1)
	}
}

// Flush waits for the queue to drain.
func (t *HTTPTransport) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Dropped returns the number of payloads dropped due to a full queue.
func (t *HTTPTransport) Dropped() uint64 {
	return t.dropped.Load()
}

// Close stops the workers. Payloads still queued are abandoned.
func (t *HTTPTransport) Close() {
	t.once.Do(func() {
		close(t.stop)
	})
	t.wg.Wait()
}

func (t *HTTPTransport) run() {
	defer t.wg.Done()
	for {
		select {
		case p := <-t.queue:
			t.send(p)
			t.pending.Done()
		case <-t.stop:
			return
		}
	}
}

func (t *HTTPTransport) send(p Payload) {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	req, err := http.NewRequest(http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		logger.Warn("payload request construction failed", zap.Error(err))
		return
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Warn("payload send failed", zap.String("url", p.URL), zap.Error(err))
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.Warn("payload rejected by destination",
			zap.String("url", p.URL),
			zap.Int("status", resp.StatusCode))
	}
}

// noopTransport swallows payloads; used when no DSN is configured.
type noopTransport struct{}

func (noopTransport) SendPayload(Payload) {}

func (noopTransport) Flush(time.Duration) bool { return true }

func (noopTransport) Close() {}
