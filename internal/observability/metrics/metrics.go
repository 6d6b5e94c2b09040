// Package metrics exposes application-level Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Metrics holds the closing engine's instruments. A nil *Metrics is a
// valid no-op receiver so tests can skip wiring it.
type Metrics struct {
	recalculations   prometheus.Counter
	lockDenials      prometheus.Counter
	unlocks          prometheus.Counter
	shortfallRuns    *prometheus.CounterVec
	summaryRecompute prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		recalculations: factory.NewCounter(prometheus.CounterOpts{
			Name: "closedesk_statement_recalculations_total",
			Help: "Statement of adjustments recalculations performed.",
		}),
		lockDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "closedesk_statement_lock_denials_total",
			Help: "Lock requests refused because confirmations were missing.",
		}),
		unlocks: factory.NewCounter(prometheus.CounterOpts{
			Name: "closedesk_statement_unlocks_total",
			Help: "Privileged unlocks of locked statements.",
		}),
		shortfallRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "closedesk_shortfall_analyses_total",
			Help: "Shortfall analyses by resulting scenario.",
		}, []string{"scenario"}),
		summaryRecompute: factory.NewCounter(prometheus.CounterOpts{
			Name: "closedesk_project_summary_recomputes_total",
			Help: "Project-level summary recomputations.",
		}),
	}
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func (m *Metrics) RecordRecalculation() {
	if m == nil {
		return
	}
	m.recalculations.Inc()
}

func (m *Metrics) RecordLockDenial() {
	if m == nil {
		return
	}
	m.lockDenials.Inc()
}

func (m *Metrics) RecordUnlock() {
	if m == nil {
		return
	}
	m.unlocks.Inc()
}

func (m *Metrics) RecordShortfallAnalysis(scenario string) {
	if m == nil {
		return
	}
	m.shortfallRuns.WithLabelValues(scenario).Inc()
}

func (m *Metrics) RecordSummaryRecompute() {
	if m == nil {
		return
	}
	m.summaryRecompute.Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(
		fx.Annotate(NewRegistry, fx.As(new(prometheus.Registerer)), fx.As(new(prometheus.Gatherer))),
		New,
	),
)
