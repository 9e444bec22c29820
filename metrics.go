package tracewire

import "github.com/prometheus/client_golang/prometheus"

// clientMetrics counts what the client sampled, dropped, and sent. The
// counters always exist so call sites stay unconditional; they are only
// exposed when the options carry a Registerer.
type clientMetrics struct {
	samplingDecisions *prometheus.CounterVec
	droppedSpans      prometheus.Counter
	payloadsSent      prometheus.Counter
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		samplingDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracewire",
			Name:      "sampling_decisions_total",
			Help:      "Sampling decisions resolved for started transactions.",
		}, []string{"decision"}),
		droppedSpans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracewire",
			Name:      "dropped_spans_total",
			Help:      "Spans discarded because a transaction hit its span cap.",
		}),
		payloadsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tracewire",
			Name:      "payloads_sent_total",
			Help:      "Payloads handed to the transport.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.samplingDecisions, m.droppedSpans, m.payloadsSent)
	}
	return m
}
