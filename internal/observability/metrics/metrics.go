package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "looptrust_"

	resultSuccess = "success"
	resultError   = "error"
)

// Exported result labels for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

var (
	registerOnce sync.Once

	shipmentOpsTotal   *prometheus.CounterVec
	shipmentOpsLatency *prometheus.HistogramVec

	purchaseTotal   *prometheus.CounterVec
	purchaseLatency *prometheus.HistogramVec

	chainConfirmTotal   *prometheus.CounterVec
	chainConfirmLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		shipmentOpsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "shipment_ops_total",
				Help: "Total shipment ledger operations by op and result",
			},
			[]string{"op", "result"},
		)
		shipmentOpsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "shipment_op_latency_seconds",
				Help:    "Shipment ledger operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		)

		purchaseTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "purchase_records_total",
				Help: "Total purchase record operations by result",
			},
			[]string{"result"},
		)
		purchaseLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "purchase_record_latency_seconds",
				Help:    "Purchase record latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		chainConfirmTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chain_confirmations_total",
				Help: "Total chain confirmation round trips by result",
			},
			[]string{"result"},
		)
		chainConfirmLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "chain_confirmation_latency_seconds",
				Help:    "Chain confirmation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total manifest/purchase exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			shipmentOpsTotal,
			shipmentOpsLatency,
			purchaseTotal,
			purchaseLatency,
			chainConfirmTotal,
			chainConfirmLatency,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveShipmentOp records a ledger operation latency and result.
func ObserveShipmentOp(op, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if shipmentOpsTotal != nil {
		shipmentOpsTotal.WithLabelValues(op, result).Inc()
	}
	if shipmentOpsLatency != nil {
		shipmentOpsLatency.WithLabelValues(op, result).Observe(duration.Seconds())
	}
}

// ObservePurchase records a purchase record latency and result.
func ObservePurchase(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if purchaseTotal != nil {
		purchaseTotal.WithLabelValues(result).Inc()
	}
	if purchaseLatency != nil {
		purchaseLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveChainConfirm records a chain confirmation round trip.
func ObserveChainConfirm(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if chainConfirmTotal != nil {
		chainConfirmTotal.WithLabelValues(result).Inc()
	}
	if chainConfirmLatency != nil {
		chainConfirmLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "shipments_count",
			Help: "Shipments in the ledger",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM shipments")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "shipments_in_transit",
			Help: "Shipments currently in transit",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM shipments WHERE status = 1")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
