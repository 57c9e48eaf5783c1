// Package metrics exposes gridwar's Prometheus instrumentation
// (spec.md §4.9 / SPEC_FULL.md's dashboard section): action throughput,
// rejection reasons, explosion frequency, and connected-player gauges,
// grounded on the teacher pack's BFD metrics collector shape (one struct
// of pre-registered vectors, built once and handed to whatever needs to
// observe).
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "gridwar"
	subsystem = "engine"
)

const (
	labelActionKind = "action_kind"
	labelAccepted   = "accepted"
	labelReason     = "reason"
	labelChained    = "chained"
)

// Collector holds every gridwar Prometheus metric. It implements
// pkg/game.Metrics so the engine can report through the interface
// without importing Prometheus directly.
type Collector struct {
	ActionsTotal      *prometheus.CounterVec
	ExplosionsTotal   *prometheus.CounterVec
	ConnectedPlayers  prometheus.Gauge
	RejectReasons     *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics against reg.
// A nil reg registers against prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "actions_total",
			Help:      "Player actions handled, labeled by kind and acceptance.",
		}, []string{labelActionKind, labelAccepted}),
		ExplosionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "explosions_total",
			Help:      "Mine explosions, labeled by whether they were chain-triggered.",
		}, []string{labelChained}),
		ConnectedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connected_players",
			Help:      "Number of players currently bound to a live connection.",
		}),
		RejectReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "action_rejections_total",
			Help:      "Rejected actions, labeled by kind and reason.",
		}, []string{labelActionKind, labelReason}),
	}

	reg.MustRegister(c.ActionsTotal, c.ExplosionsTotal, c.ConnectedPlayers, c.RejectReasons)
	return c
}

// ObserveAction records one action-pipeline outcome (pkg/game.Metrics).
func (c *Collector) ObserveAction(kind string, accepted bool, rejectReason string) {
	c.ActionsTotal.WithLabelValues(kind, boolLabel(accepted)).Inc()
	if !accepted && rejectReason != "" {
		c.RejectReasons.WithLabelValues(kind, rejectReason).Inc()
	}
}

// ObserveExplosion records one explosion, origin or chained.
func (c *Collector) ObserveExplosion(chained bool) {
	c.ExplosionsTotal.WithLabelValues(boolLabel(chained)).Inc()
}

// SetConnectedPlayers sets the live connected-player gauge.
func (c *Collector) SetConnectedPlayers(n int) {
	c.ConnectedPlayers.Set(float64(n))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
