package tracewire

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testDsn is a well-formed destination used across the tests.
const testDsn = "https://key@trace.example.com/42"

// testTransport records payloads instead of sending them.
type testTransport struct {
	mu       sync.Mutex
	payloads []Payload
}

func (t *testTransport) SendPayload(p Payload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.payloads = append(t.payloads, p)
}

func (t *testTransport) Flush(time.Duration) bool { return true }

func (t *testTransport) Close() {}

func (t *testTransport) Payloads() []Payload {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Payload, len(t.payloads))
	copy(out, t.payloads)
	return out
}

// newTestClient builds a client wired to a recording transport. Options
// keep their values when set; only the gaps are filled in.
func newTestClient(t *testing.T, options ClientOptions) (*Client, *testTransport) {
	t.Helper()

	transport := &testTransport{}
	if options.Transport == nil {
		options.Transport = transport
	}
	if options.Dsn == "" {
		options.Dsn = testDsn
	}

	client, err := NewClient(options)
	require.NoError(t, err)
	return client, transport
}

// rngReturning replaces the client's random source with a fixed sequence,
// repeating the last value once exhausted.
func rngReturning(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}
