package infra

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed settlement cycles.
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_cycles_total",
			Help: "Total number of settlement cycles run",
		},
	)

	// CycleDuration tracks how long a full cycle takes.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "exchange_cycle_duration_seconds",
			Help:    "Settlement cycle duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// OrdersProcessed counts processed orders by result.
	OrdersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_processed_total",
			Help: "Total number of processed orders by result",
		},
		[]string{"result"},
	)

	// ReferencePrice tracks the current reference price per company.
	ReferencePrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_reference_price",
			Help: "Current reference price per company",
		},
		[]string{"symbol"},
	)

	// TradeVolume tracks cumulative traded volume per company.
	TradeVolume = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_trade_volume",
			Help: "Cumulative traded share volume per company",
		},
		[]string{"symbol"},
	)

	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)
)

// PrometheusMiddleware records request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}
