// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Doorkeep Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for login attempt metrics.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// LoginAttempts is the counter for credential attempts.
// Use RegisterMetrics to register this with a Prometheus registry.
var LoginAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "doorkeep_login_attempts_total",
		Help: "Total number of login attempts by guard and outcome",
	},
	[]string{"guard", "status"},
)

// SessionHeals is the counter for stale-session self-heals (a session
// identifier referencing a deleted user record).
var SessionHeals = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "doorkeep_session_heals_total",
		Help: "Total number of stale sessions cleared by guards",
	},
	[]string{"guard"},
)

// RegisterMetrics registers auth package metrics with the given Prometheus
// registry. Call once at startup. Panics if registration fails (prometheus
// convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(SessionHeals)
}

// RecordLoginAttempt increments the login attempt counter.
func RecordLoginAttempt(guard, status string) {
	LoginAttempts.WithLabelValues(guard, status).Inc()
}

// RecordSessionHeal increments the stale-session heal counter.
func RecordSessionHeal(guard string) {
	SessionHeals.WithLabelValues(guard).Inc()
}
