// Package metrics exposes runtime activity as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/evented/internal/listen"
)

// Recorder implements listen.Recorder with Prometheus collectors.
type Recorder struct {
	subscriptions *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	active        *prometheus.GaugeVec
	publishes     *prometheus.CounterVec
	passes        prometheus.Counter
	nodes         prometheus.Counter
}

var _ listen.Recorder = (*Recorder)(nil)

// NewRecorder creates a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	r := &Recorder{
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listen",
			Name:      "subscriptions_total",
			Help:      "Total subscriptions by attach strategy",
		}, []string{"strategy"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listen",
			Name:      "cancellations_total",
			Help:      "Total cancelled subscriptions by attach strategy",
		}, []string{"strategy"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listen",
			Name:      "active_subscriptions",
			Help:      "Live subscriptions by attach strategy",
		}, []string{"strategy"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "publishes_total",
			Help:      "Total hub publishes by topic",
		}, []string{"topic"}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "teardown",
			Name:      "passes_total",
			Help:      "Total teardown passes",
		}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "teardown",
			Name:      "nodes_total",
			Help:      "Total marked nodes torn down",
		}),
	}

	for _, c := range []prometheus.Collector{r.subscriptions, r.cancellations, r.active, r.publishes, r.passes, r.nodes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return r, nil
}

// Subscribed implements listen.Recorder.
func (r *Recorder) Subscribed(s listen.Strategy) {
	r.subscriptions.WithLabelValues(s.String()).Inc()
	r.active.WithLabelValues(s.String()).Inc()
}

// Cancelled implements listen.Recorder.
func (r *Recorder) Cancelled(s listen.Strategy) {
	r.cancellations.WithLabelValues(s.String()).Inc()
	r.active.WithLabelValues(s.String()).Dec()
}

// Published implements listen.Recorder.
func (r *Recorder) Published(topic string) {
	r.publishes.WithLabelValues(topic).Inc()
}

// TeardownPass implements listen.Recorder.
func (r *Recorder) TeardownPass(nodes, _ int) {
	r.passes.Inc()
	r.nodes.Add(float64(nodes))
}
