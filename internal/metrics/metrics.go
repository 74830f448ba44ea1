package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	InvitationsIssued   prometheus.Counter
	InvitationsRedeemed prometheus.Counter
	PasswordResets      prometheus.Counter
	TripTransitions     *prometheus.CounterVec
	InspectionsFiled    *prometheus.CounterVec
}

// New registers and returns the service metrics.
func New() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fleet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		InvitationsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "invitations_issued_total",
			Help:      "Total number of invitations issued",
		}),
		InvitationsRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "invitations_redeemed_total",
			Help:      "Total number of invitations redeemed",
		}),
		PasswordResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "password_resets_requested_total",
			Help:      "Total number of password reset requests",
		}),
		TripTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "trip_transitions_total",
			Help:      "Total number of trip state transitions",
		}, []string{"transition"}),
		InspectionsFiled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Name:      "inspections_filed_total",
			Help:      "Total number of inspections filed",
		}, []string{"type"}),
	}
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// FullPath keeps label cardinality bounded; raw URLs with IDs
		// would explode the series count.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
