package runtime

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records bridge activity. A nil *Metrics records nothing.
type Metrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	poisoned     prometheus.Counter
	hostFaults   prometheus.Counter
	hostFailures *prometheus.CounterVec
	setup        *prometheus.HistogramVec
}

// NewMetrics creates the bridge collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasm_bridge",
			Name:      "calls_total",
			Help:      "Guest calls by export and outcome.",
		}, []string{"export", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wasm_bridge",
			Name:      "call_duration_seconds",
			Help:      "Guest call latency by outcome.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"outcome"}),
		poisoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wasm_bridge",
			Name:      "instances_poisoned_total",
			Help:      "Instances poisoned by a guest fault.",
		}),
		hostFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wasm_bridge",
			Name:      "host_faults_total",
			Help:      "Fatal host failures escalated to callers.",
		}),
		hostFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wasm_bridge",
			Name:      "host_failures_total",
			Help:      "Declared failures returned by fallible host functions.",
		}, []string{"function"}),
		setup: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wasm_bridge",
			Name:      "setup_duration_seconds",
			Help:      "Compile, link and instantiate latency.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"phase"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.callDuration, m.poisoned, m.hostFaults, m.hostFailures, m.setup} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCall(export string, o Outcome, d time.Duration) {
	if m == nil {
		return
	}
	label := outcomeLabel(o)
	m.calls.WithLabelValues(export, label).Inc()
	m.callDuration.WithLabelValues(label).Observe(d.Seconds())
}

func (m *Metrics) observePoison() {
	if m == nil {
		return
	}
	m.poisoned.Inc()
}

func (m *Metrics) observeHostFault(export string) {
	if m == nil {
		return
	}
	m.hostFaults.Inc()
	m.calls.WithLabelValues(export, "host_fault").Inc()
}

func (m *Metrics) observeHostFailure(function string) {
	if m == nil {
		return
	}
	m.hostFailures.WithLabelValues(function).Inc()
}

func (m *Metrics) observeSetup(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.setup.WithLabelValues(phase).Observe(d.Seconds())
}
