package services

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts prize engine outcomes.
type Metrics struct {
	spins     *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	checkIns  *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewMetrics registers the prize engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		spins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "lucky_draw",
			Name:      "spins_total",
			Help:      "Completed spins by spin type and prize type.",
		}, []string{"spin_type", "prize_type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "lucky_draw",
			Name:      "spins_rejected_total",
			Help:      "Spins rejected by reason.",
		}, []string{"reason"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "gamification",
			Name:      "check_ins_total",
			Help:      "Daily check-ins by cycle day and Day-7 outcome.",
		}, []string{"cycle_day", "outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loyalty",
			Subsystem: "lucky_draw",
			Name:      "concurrency_conflicts_total",
			Help:      "Guarded decrements that lost a race.",
		}),
	}
	reg.MustRegister(m.spins, m.rejected, m.checkIns, m.conflicts)
	return m
}

func (m *Metrics) spinCompleted(spinType, prizeType string) {
	if m == nil {
		return
	}
	m.spins.WithLabelValues(spinType, prizeType).Inc()
}

func (m *Metrics) spinRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) checkedIn(cycleDay int, outcome string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(strconv.Itoa(cycleDay), outcome).Inc()
}

func (m *Metrics) conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}
