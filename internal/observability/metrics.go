// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UnmatchedRoute labels requests that no route pattern matched.
const UnmatchedRoute = "unmatched"

// Registrar registers a package's collectors, e.g. auth.RegisterMetrics.
type Registrar func(prometheus.Registerer)

// Metrics contains the HTTP and housekeeping metrics for portfolio.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SessionsPurged  prometheus.Counter
}

// NewMetrics creates the portfolio server metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		SessionsPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_sessions_purged_total",
				Help: "Total number of expired sessions removed",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.SessionsPurged)
	return m
}

// ObserveRequest records one finished request. An empty route counts as
// UnmatchedRoute.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = UnmatchedRoute
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObservePurge adds n removed sessions. Non-positive counts are ignored.
func (m *Metrics) ObservePurge(n int64) {
	if n > 0 {
		m.SessionsPurged.Add(float64(n))
	}
}
