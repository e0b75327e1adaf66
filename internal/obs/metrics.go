package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Core authentication/authorization metrics.
var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Authentication attempts by outcome.",
		},
		[]string{"outcome"},
	)

	authorizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_authorize_total",
			Help: "Authorization decisions by outcome.",
		},
		[]string{"outcome"},
	)

	sessionAge = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auth_session_age_seconds",
			Help:    "Observed session inactivity age at authorization time.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		},
	)
)

// Init registers the metrics in the default registry.
func Init() {
	prometheus.MustRegister(loginsTotal, authorizeTotal, sessionAge)
}

// ObserveLogin records the outcome of an authentication attempt.
func ObserveLogin(outcome string) {
	loginsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAuthorize records an authorization decision and, when known, the
// session inactivity age seen during the check.
func ObserveAuthorize(outcome string, age time.Duration) {
	authorizeTotal.WithLabelValues(outcome).Inc()
	if age >= 0 {
		sessionAge.Observe(age.Seconds())
	}
}
