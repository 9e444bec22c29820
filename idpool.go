package tracewire

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Identifier widths on the wire: trace ids are 32 lowercase hex characters,
// span ids 16, event ids 32.
const (
	traceIDBytes = 16
	spanIDBytes  = 8
)

// idPool manages a pool of pre-generated ids to amortize crypto/rand overhead.
type idPool struct {
	factory func() string
	ids     chan string
	stopCh  chan struct{}
	mu      sync.Mutex
	closed  bool
}

// newIDPool creates a new id pool with the specified capacity.
func newIDPool(capacity int, factory func() string) *idPool {
	pool := &idPool{
		ids:     make(chan string, capacity),
		factory: factory,
		stopCh:  make(chan struct{}),
	}
	// Start background refill goroutine.
	go pool.refill()
	return pool
}

// get retrieves an id from the pool or generates one if the pool is empty.
func (p *idPool) get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		// Pool empty, generate directly (fallback for burst load).
		return p.factory()
	}
}

// refill maintains the pool by generating ids in background.
func (p *idPool) refill() {
	for {
		select {
		case <-p.stopCh:
			return
		default:
			select {
			case p.ids <- p.factory():
				// Successfully added id to pool.
			case <-p.stopCh:
				return
			}
		}
	}
}

// close shuts down the id pool gracefully.
func (p *idPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		close(p.stopCh)
		p.closed = true
	}
}

var (
	idPoolsOnce sync.Once
	traceIDPool *idPool
	spanIDPool  *idPool
)

const idPoolCapacity = 128

// randomHex returns n random bytes as a lowercase hex string. If crypto/rand
// is unavailable it falls back to a time-derived value rather than failing:
// a weak id still beats a lost trace.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))[:2*n]
	}
	return hex.EncodeToString(b)
}

func ensureIDPools() {
	idPoolsOnce.Do(func() {
		traceIDPool = newIDPool(idPoolCapacity, func() string {
			return randomHex(traceIDBytes)
		})
		spanIDPool = newIDPool(idPoolCapacity, func() string {
			return randomHex(spanIDBytes)
		})
	})
}

// newTraceID returns a fresh 32-character trace id.
func newTraceID() string {
	ensureIDPools()
	return traceIDPool.get()
}

// newSpanID returns a fresh 16-character span id.
func newSpanID() string {
	ensureIDPools()
	return spanIDPool.get()
}

// newEventID returns a fresh 32-character event id. Event ids share the
// trace id width, so they draw from the same pool.
func newEventID() EventID {
	ensureIDPools()
	return EventID(traceIDPool.get())
}
