package runtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks inbound adapter statistics. A nil *Metrics disables all
// recording, so the transport never needs to branch on configuration.
type Metrics struct {
	mu sync.Mutex

	messagesTotal *prometheus.CounterVec
	bytesTotal    prometheus.Counter
	droppedTotal  *prometheus.CounterVec
	setupFailures prometheus.Counter
	faultsTotal   prometheus.Counter
	pollErrors    prometheus.Counter

	registered bool
}

// Drop reasons recorded by RecordDropped.
const (
	DropReasonDecode      = "decode"
	DropReasonSerialize   = "serialize"
	DropReasonUnknownKind = "unknown_kind"
)

func newInletCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inlet",
		Subsystem: "transport",
		Name:      name,
		Help:      help,
	})
}

func newInletCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inlet",
		Subsystem: "transport",
		Name:      name,
		Help:      help,
	}, labels)
}

// NewMetrics creates an unregistered metrics set. Call Register to attach the
// collectors to a Prometheus registerer.
func NewMetrics() *Metrics {
	return &Metrics{
		messagesTotal: newInletCounterVec("messages_total",
			"Messages forwarded to the byte listener, by payload kind.", []string{"kind"}),
		bytesTotal: newInletCounter("bytes_total",
			"Payload bytes forwarded to the byte listener."),
		droppedTotal: newInletCounterVec("dropped_total",
			"Messages dropped before forwarding, by reason.", []string{"reason"}),
		setupFailures: newInletCounter("setup_failures_total",
			"Connection setup attempts that failed."),
		faultsTotal: newInletCounter("connection_faults_total",
			"Asynchronous connection faults reported by the broker client."),
		pollErrors: newInletCounter("poll_errors_total",
			"Transient errors while polling for the next message."),
	}
}

// Register attaches the collectors to reg, once. Subsequent calls are no-ops.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.messagesTotal, m.bytesTotal, m.droppedTotal,
		m.setupFailures, m.faultsTotal, m.pollErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	m.registered = true
	return nil
}

// RecordForwarded counts one forwarded message and its payload size.
func (m *Metrics) RecordForwarded(kind string, bytes int) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(kind).Inc()
	m.bytesTotal.Add(float64(bytes))
}

// RecordDropped counts one dropped message.
func (m *Metrics) RecordDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
}

// RecordSetupFailure counts one failed setup attempt.
func (m *Metrics) RecordSetupFailure() {
	if m == nil {
		return
	}
	m.setupFailures.Inc()
}

// RecordFault counts one asynchronous connection fault.
func (m *Metrics) RecordFault() {
	if m == nil {
		return
	}
	m.faultsTotal.Inc()
}

// RecordPollError counts one transient polling error.
func (m *Metrics) RecordPollError() {
	if m == nil {
		return
	}
	m.pollErrors.Inc()
}
