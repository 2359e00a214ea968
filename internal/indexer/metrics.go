package indexer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pairScope/internal/model"
	"pairScope/internal/protocol"
)

// Metrics holds the indexer's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	SyncRuns          *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	Subscriptions     *prometheus.CounterVec
	PairCounter       *prometheus.GaugeVec
	PoolsAssembled    prometheus.Counter
	ReconcileOutcomes *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairscope_sync_runs_total",
			Help: "Synchronization runs by result",
		}, []string{"network", "result"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairscope_sync_duration_seconds",
			Help:    "Duration of synchronization runs",
			Buckets: prometheus.DefBuckets,
		}),
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairscope_subscriptions_total",
			Help: "Subscription attempts by kind and result",
		}, []string{"kind", "result"}),
		PairCounter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairscope_pair_counter",
			Help: "Pairs created by the factory, as read on chain",
		}, []string{"network"}),
		PoolsAssembled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairscope_pools_assembled_total",
			Help: "Liquidity pool snapshots assembled",
		}),
		ReconcileOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairscope_reconcile_outcomes_total",
			Help: "Reconciled subscriptions by classification outcome",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.SyncRuns, m.SyncDuration, m.Subscriptions, m.PairCounter, m.PoolsAssembled, m.ReconcileOutcomes)
	}
	return m
}

const (
	subscribeKindFactoryKey = "factory_key"
	subscribeKindContract   = "contract"

	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
	resultPartial = "partial"
)

func (m *Metrics) observeSync(network model.Network, result string, started time.Time) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(string(network), result).Inc()
	m.SyncDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) subscription(kind, result string) {
	if m == nil {
		return
	}
	m.Subscriptions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) pairCounter(network model.Network, count uint32) {
	if m == nil {
		return
	}
	m.PairCounter.WithLabelValues(string(network)).Set(float64(count))
}

func (m *Metrics) poolsAssembled(n int) {
	if m == nil {
		return
	}
	m.PoolsAssembled.Add(float64(n))
}

func (m *Metrics) reconcileOutcome(outcome protocol.Outcome) {
	if m == nil {
		return
	}
	m.ReconcileOutcomes.WithLabelValues(string(outcome)).Inc()
}
