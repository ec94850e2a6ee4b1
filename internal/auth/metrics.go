// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for login and signup metrics.
const (
	ResultSuccess      = "success"
	ResultInvalidInput = "invalid_input"
	ResultRejected     = "rejected"
	ResultConflict     = "conflict"
	ResultError        = "error"
)

// LoginAttempts counts login attempts by result.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_login_attempts_total",
		Help: "Total number of login attempts by result",
	},
	[]string{"result"},
)

// SignupAttempts counts signup attempts by result.
var SignupAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "portfolio_signup_attempts_total",
		Help: "Total number of signup attempts by result",
	},
	[]string{"result"},
)

// BootstrapFailures counts initial allocations that could not be stored.
var BootstrapFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "portfolio_allocation_bootstrap_failures_total",
		Help: "Total number of new accounts whose initial allocation could not be stored",
	},
)

// PasswordHashDuration observes how long hashing and verification take.
var PasswordHashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "portfolio_password_hash_duration_seconds",
		Help:    "Password hash and verify duration in seconds",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"operation"},
)

// RegisterMetrics registers auth metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(SignupAttempts)
	reg.MustRegister(BootstrapFailures)
	reg.MustRegister(PasswordHashDuration)
}

func recordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

func recordSignup(result string) {
	SignupAttempts.WithLabelValues(result).Inc()
}

func recordHashDuration(operation string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(operation).Observe(d.Seconds())
}
