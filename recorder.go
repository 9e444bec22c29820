package tracewire

// defaultMaxSpans bounds how many spans one transaction accumulates.
const defaultMaxSpans = 1000

// spanRecorder owns the ordered span sequence of a single transaction, the
// transaction itself first. Past maxSpans it enters a dropping state that
// preserves everything already recorded, the root entry included; later
// additions are counted and discarded.
//
// Like spans, the recorder is not safe for concurrent mutation; isolation
// across logical contexts belongs to whoever hands out hubs.
type spanRecorder struct {
	spans    []*Span
	maxSpans int
	dropping bool
	dropped  uint64
}

func newSpanRecorder(maxSpans int) *spanRecorder {
	if maxSpans <= 0 {
		maxSpans = defaultMaxSpans
	}
	return &spanRecorder{
		spans:    make([]*Span, 0, 8),
		maxSpans: maxSpans,
	}
}

// add appends a span in insertion order, or drops it when the cap is hit.
func (r *spanRecorder) add(s *Span) {
	if r.dropping || len(r.spans) >= r.maxSpans {
		r.dropping = true
		r.dropped++
		return
	}
	r.spans = append(r.spans, s)
}

// root returns the first recorded entry, the owning transaction's span.
func (r *spanRecorder) root() *Span {
	if len(r.spans) == 0 {
		return nil
	}
	return r.spans[0]
}

// finishedChildren returns the recorded spans excluding the given one,
// filtered to those that have finished. Unfinished children are silently
// excluded from the assembled event.
func (r *spanRecorder) finishedChildren(exclude *Span) []*Span {
	children := make([]*Span, 0, len(r.spans))
	for _, s := range r.spans {
		if s != exclude && s.Finished() {
			children = append(children, s)
		}
	}
	return children
}

// droppedCount reports how many spans were discarded past the cap.
func (r *spanRecorder) droppedCount() uint64 {
	return r.dropped
}
