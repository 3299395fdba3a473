// Package metrics provides observer metrics collection.
// It wraps Prometheus collectors on a private registry so several observers
// can share one /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sljivkov/dextick/domain"
)

// Collector records observer telemetry
type Collector struct {
	registry *prometheus.Registry

	passesTotal        *prometheus.CounterVec
	passDuration       *prometheus.HistogramVec
	derivationFailures *prometheus.CounterVec
	subscriptionErrors *prometheus.CounterVec

	currentPrice *prometheus.GaugeVec
	currentTick  *prometheus.GaugeVec
	observations *prometheus.GaugeVec
	lastBlock    *prometheus.GaugeVec
}

// NewCollector creates a collector under namespace, defaulting to "dextick"
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "dextick"
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.passesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pass",
			Name:      "total",
			Help:      "Observation passes by result (ok, partial, empty)",
		},
		[]string{"pool", "result"},
	)

	c.passDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pass",
			Name:      "duration_seconds",
			Help:      "Time taken by one observation pass",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"pool"},
	)

	c.derivationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pass",
			Name:      "derivation_failures_total",
			Help:      "Skipped derivations (current, window) after a failed on-chain read",
		},
		[]string{"pool", "derivation"},
	)

	c.subscriptionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "errors_total",
			Help:      "Failed or dropped new-head subscriptions",
		},
		[]string{"pool"},
	)

	c.currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "price",
			Help:      "Current decimals-adjusted price of token0 in token1",
		},
		[]string{"pool"},
	)

	c.currentTick = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tick",
			Help:      "Current pool tick",
		},
		[]string{"pool"},
	)

	c.observations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "window_points",
			Help:      "Number of points in the last windowed series",
		},
		[]string{"pool"},
	)

	c.lastBlock = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "last_block",
			Help:      "Block number of the last observation pass",
		},
		[]string{"pool"},
	)

	c.registry.MustRegister(
		c.passesTotal,
		c.passDuration,
		c.derivationFailures,
		c.subscriptionErrors,
		c.currentPrice,
		c.currentTick,
		c.observations,
		c.lastBlock,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObservePass records the outcome of one pass
func (c *Collector) ObservePass(pool common.Address, took time.Duration, update domain.Update) {
	label := pool.Hex()

	c.passDuration.WithLabelValues(label).Observe(took.Seconds())
	c.passesTotal.WithLabelValues(label, passResult(update)).Inc()

	if update.HasCurrentPrice {
		c.currentPrice.WithLabelValues(label).Set(update.CurrentPrice)
		c.currentTick.WithLabelValues(label).Set(float64(update.CurrentTick))
	}

	if update.HasObservations {
		c.observations.WithLabelValues(label).Set(float64(len(update.Observations)))
	}

	if update.Block > 0 {
		c.lastBlock.WithLabelValues(label).Set(float64(update.Block))
	}
}

// DerivationFailed counts a skipped derivation
func (c *Collector) DerivationFailed(pool common.Address, derivation string) {
	c.derivationFailures.WithLabelValues(pool.Hex(), derivation).Inc()
}

// SubscriptionError counts a failed or dropped head subscription
func (c *Collector) SubscriptionError(pool common.Address) {
	c.subscriptionErrors.WithLabelValues(pool.Hex()).Inc()
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func passResult(update domain.Update) string {
	switch {
	case update.HasCurrentPrice && update.HasObservations:
		return "ok"
	case update.Empty():
		return "empty"
	default:
		return "partial"
	}
}
