package observability

import (
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics for the ledger.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	settlements     *prometheus.CounterVec
	settledAmount   *prometheus.CounterVec
	alertsGenerated *prometheus.CounterVec
	registersClosed prometheus.Counter
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_settlements_total",
				Help: "Settlement attempts by account kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		settledAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_settled_amount_total",
				Help: "Money settled by account kind.",
			},
			[]string{"kind"},
		),
		alertsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_alerts_generated_total",
				Help: "Payment alerts created by type.",
			},
			[]string{"type"},
		),
		registersClosed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_cash_registers_closed_total",
				Help: "Daily cash registers closed.",
			},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSettlement counts a settlement attempt. Amount is only added on success.
func (m *Metrics) RecordSettlement(kind domain.AccountKind, outcome string, amount decimal.Decimal) {
	m.settlements.WithLabelValues(string(kind), outcome).Inc()
	if outcome == OutcomeSuccess {
		m.settledAmount.WithLabelValues(string(kind)).Add(amount.InexactFloat64())
	}
}

// Settlement outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// IncrAlertGenerated increments the generated-alert counter.
func (m *Metrics) IncrAlertGenerated(t domain.AlertType) {
	m.alertsGenerated.WithLabelValues(string(t)).Inc()
}

// IncrRegisterClosed increments the closed-register counter.
func (m *Metrics) IncrRegisterClosed() {
	m.registersClosed.Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// Snapshot returns the ledger counters for the GET /v1/financial/metrics endpoint.
func (m *Metrics) Snapshot() *domain.LedgerMetrics {
	payable, receivable := string(domain.Payable), string(domain.Receivable)

	var alerts float64
	for _, h := range domain.AlertHorizons {
		alerts += getCounterValue(m.alertsGenerated, string(h.Type))
	}
	alerts += getCounterValue(m.alertsGenerated, string(domain.AlertOverdue))

	hits := getCounterValue(m.cacheHits, "sale")
	misses := getCounterValue(m.cacheMisses, "sale")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.LedgerMetrics{
		PayablesSettled:    int64(getCounterValue(m.settlements, payable, OutcomeSuccess)),
		ReceivablesSettled: int64(getCounterValue(m.settlements, receivable, OutcomeSuccess)),
		SettlementsRejected: int64(getCounterValue(m.settlements, payable, OutcomeRejected) +
			getCounterValue(m.settlements, receivable, OutcomeRejected)),
		AmountPaid:       getCounterValue(m.settledAmount, payable),
		AmountReceived:   getCounterValue(m.settledAmount, receivable),
		AlertsGenerated:  int64(alerts),
		RegistersClosed:  int64(counterValue(m.registersClosed)),
		SalesErrors:      int64(getCounterValue(m.externalErrors, "sales")),
		SaleCacheHitRate: hitRate,
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	return counterValue(cv.WithLabelValues(labels...))
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
