// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gw_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	tokensIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
		[]string{"type", "grant_type"}, // type: "access", "refresh"
	)

	authCodesIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gw_auth_codes_issued_total",
			Help: "Total number of authorization codes issued",
		},
	)

	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw_login_attempts_total",
			Help: "Total number of direct login attempts",
		},
		[]string{"status"}, // "success", "failure", "blacklisted"
	)

	rateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"reason"},
	)

	toolExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gw_tool_executions_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "status"}, // status: "success", "error"
	)
)

// RecordHTTPRequest records metrics for an HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTokenIssued records a token issuance.
func RecordTokenIssued(tokenType, grantType string) {
	tokensIssuedTotal.WithLabelValues(tokenType, grantType).Inc()
}

// RecordAuthCodeIssued records an authorization code issuance.
func RecordAuthCodeIssued() {
	authCodesIssuedTotal.Inc()
}

// RecordLoginAttempt records a direct login attempt.
func RecordLoginAttempt(status string) {
	loginAttemptsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimitRejection records a request rejected by the limiter.
func RecordRateLimitRejection(reason string) {
	rateLimitRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordToolExecution records a tool invocation outcome.
func RecordToolExecution(tool, status string) {
	toolExecutionsTotal.WithLabelValues(tool, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
