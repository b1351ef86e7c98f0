package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AradIT/aradsms/campaign_services/internal/campaign_service/adapters/http/middleware"
)

const (
	roleAnonymous = "anonymous"
	roleOther     = "other"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campaign_service",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, caller role and status.",
		},
		[]string{"method", "path", "role", "status_code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campaign_service",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and caller role.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "role"},
	)
)

type metricsLabelsKey struct{}

// metricsLabels is filled in by inner middleware; the authenticated
// principal lives on a derived context the outer middleware never sees.
type metricsLabels struct {
	role string
}

// PrometheusMetricsMiddleware records request counts and latencies labelled
// by chi route pattern and the caller's role. Requests that never pass
// authentication are counted as anonymous.
func PrometheusMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		labels := &metricsLabels{role: roleAnonymous}
		ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), metricsLabelsKey{}, labels)))

		path := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		statusCode := ww.Status()
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		httpRequestDurationSeconds.WithLabelValues(r.Method, path, labels.role).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, path, labels.role, strconv.Itoa(statusCode)).Inc()
	})
}

// recordPrincipalRole copies the authenticated principal's role into the
// request metrics. It must run after middleware.AuthMiddleware.
func recordPrincipalRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		labels, ok := r.Context().Value(metricsLabelsKey{}).(*metricsLabels)
		if principal, found := middleware.PrincipalFromContext(r.Context()); ok && found {
			labels.role = roleLabel(principal)
		}
		next.ServeHTTP(w, r)
	})
}

// roleLabel bounds the label to known roles so arbitrary token claims
// cannot grow the series count.
func roleLabel(p middleware.Principal) string {
	switch {
	case p.IsAdmin:
		return middleware.RoleAdmin
	case p.Role == middleware.RoleWorker:
		return middleware.RoleWorker
	}
	return roleOther
}
