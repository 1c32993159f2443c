// Package metrics holds the Prometheus collectors for the POS backend.
//
// The web adapter serves them at /metrics; the core services record sale and
// stock-movement outcomes against the same registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos"

var (
	// RequestDuration tracks HTTP latency by method, route pattern and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// SalesCreated counts committed sales.
	SalesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "created_total",
		Help:      "Total number of committed sales.",
	})

	// SaleAmount observes committed sale totals.
	SaleAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sales",
		Name:      "amount",
		Help:      "Committed sale totals.",
		Buckets:   []float64{10, 50, 100, 500, 1_000, 5_000, 10_000, 50_000},
	})

	// SaleRejections counts sales refused before or during commit.
	SaleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "rejected_total",
			Help:      "Sales rejected, by reason.",
		},
		[]string{"reason"}, // "invalid_input" | "not_found" | "insufficient_stock" | "race_lost" | "error"
	)

	// StockMovements counts movement rows written by the ledger.
	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "movements_total",
			Help:      "Inventory movements written, by type.",
		},
		[]string{"type"}, // "IN" | "OUT"
	)

	// StockUnits counts units moved, by type.
	StockUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "units_total",
			Help:      "Units moved in or out of stock.",
		},
		[]string{"type"},
	)

	// CacheLookups tracks dashboard cache effectiveness.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Dashboard cache lookups, by result.",
		},
		[]string{"result"}, // "hit" | "miss" | "error"
	)
)

// Registry is the registry every collector above is registered on.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(
		RequestDuration,
		SalesCreated,
		SaleAmount,
		SaleRejections,
		StockMovements,
		StockUnits,
		CacheLookups,
	)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
