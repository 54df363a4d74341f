// Package metrics provides Prometheus metrics for the auth bridge and the
// catalog API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	enabled bool

	// Authentication metrics
	loginAttemptsTotal prometheus.Counter
	loginFailuresTotal *prometheus.CounterVec
	loginDuration      prometheus.Histogram

	// Token validation metrics
	tokenValidationsTotal *prometheus.CounterVec

	// Catalog metrics
	productOpsTotal *prometheus.CounterVec
}

// New creates and registers Prometheus metrics.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	m := &Metrics{enabled: enabled}

	if !enabled {
		return m
	}

	m.loginAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_login_attempts_total",
		Help: "Total login attempts",
	})

	m.loginFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_login_failures_total",
		Help: "Total login failures",
	}, []string{"reason"})

	m.loginDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_login_duration_seconds",
		Help:    "Login round trip duration including the upstream exchange",
		Buckets: prometheus.DefBuckets,
	})

	m.tokenValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_token_validations_total",
		Help: "Total local token validations",
	}, []string{"result"})

	m.productOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_product_operations_total",
		Help: "Total product store operations",
	}, []string{"operation", "result"})

	return m
}

// ObserveLogin records one login attempt with its outcome and duration.
// reason is empty on success.
func (m *Metrics) ObserveLogin(d time.Duration, reason string) {
	if !m.enabled {
		return
	}
	m.loginAttemptsTotal.Inc()
	m.loginDuration.Observe(d.Seconds())
	if reason != "" {
		m.loginFailuresTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveTokenValidation records one local token validation.
func (m *Metrics) ObserveTokenValidation(valid bool) {
	if !m.enabled {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.tokenValidationsTotal.WithLabelValues(result).Inc()
}

// ObserveProductOp records one product store operation.
func (m *Metrics) ObserveProductOp(operation string, err error) {
	if !m.enabled {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.productOpsTotal.WithLabelValues(operation, result).Inc()
}
