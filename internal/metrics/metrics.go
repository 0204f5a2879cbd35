package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OpList   = "list"
	OpSettle = "settle"
	OpCancel = "cancel"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
)

var orderOps = map[string]struct{}{
	OpList:   {},
	OpSettle: {},
	OpCancel: {},
}

// Metrics holds Prometheus metrics for the notary.
type Metrics struct {
	OrderOperations   *prometheus.CounterVec
	SettlementLatency prometheus.Histogram
	SettledVolume     prometheus.Counter
	LedgerTransfers   *prometheus.CounterVec
	AssetsMinted      *prometheus.CounterVec
	gatherer          prometheus.Gatherer
}

// NewDefault registers metrics with the default Prometheus registry.
func NewDefault() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// New registers metrics with the provided registry. If registry is nil, a new
// isolated registry is created.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return newMetrics(registry, registry)
}

func newMetrics(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		OrderOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notary_order_operations_total",
			Help: "Order operations by type and result.",
		}, []string{"op", "result"}),
		SettlementLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notary_settlement_latency_seconds",
			Help:    "Time spent executing a settlement.",
			Buckets: prometheus.DefBuckets,
		}),
		SettledVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notary_settled_volume_units_total",
			Help: "Sum of settled prices in base units.",
		}),
		LedgerTransfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notary_ledger_transfers_total",
			Help: "Direct ledger transfers by result.",
		}, []string{"result"}),
		AssetsMinted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notary_assets_minted_total",
			Help: "Assets minted per registry.",
		}, []string{"registry"}),
		gatherer: gatherer,
	}

	registerer.MustRegister(
		m.OrderOperations,
		m.SettlementLatency,
		m.SettledVolume,
		m.LedgerTransfers,
		m.AssetsMinted,
	)

	return m
}

// Handler returns an HTTP handler that exposes metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// IncOrderOperation counts one list, settle or cancel call. A nil err is
// recorded as ok, anything else as rejected.
func (m *Metrics) IncOrderOperation(op string, err error) error {
	if _, ok := orderOps[op]; !ok {
		return fmt.Errorf("unknown order operation: %s", op)
	}
	m.OrderOperations.WithLabelValues(op, result(err)).Inc()
	return nil
}

// ObserveSettlement records a successful settlement of price units that
// took d.
func (m *Metrics) ObserveSettlement(d time.Duration, price int64) {
	m.SettlementLatency.Observe(d.Seconds())
	m.SettledVolume.Add(float64(price))
}

func (m *Metrics) IncLedgerTransfer(err error) {
	m.LedgerTransfers.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) IncAssetsMinted(registry string) {
	m.AssetsMinted.WithLabelValues(registry).Inc()
}

func result(err error) string {
	if err != nil {
		return ResultRejected
	}
	return ResultOK
}
