// Package metrics exposes the agent's Prometheus collectors and the gin
// plumbing that feeds them. Collectors register on the default registry
// at init; packages that cannot import prometheus directly record through
// the callback setters their constructors expose.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	adcpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adcp_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	adcpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adcp_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	adcpTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adcp_tasks_total",
		Help: "Total tasks reaching a terminal state, by state.",
	}, []string{"state"})

	adcpAuthRefusalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adcp_auth_refusals_total",
		Help: "Total requests refused during identity resolution, by reason.",
	}, []string{"reason"})

	adcpWebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adcp_webhook_deliveries_total",
		Help: "Total webhook deliveries by success status.",
	}, []string{"status"})

	adcpDeliveryReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adcp_delivery_reports_total",
		Help: "Total scheduled delivery snapshots pushed to webhooks.",
	})
)

// PrometheusMiddleware returns a gin middleware that records per-request
// metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		adcpRequestsTotal.WithLabelValues(method, path, status).Inc()
		adcpRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// Handler returns a gin handler that serves Prometheus metrics.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordTaskState records a task reaching a terminal state.
func RecordTaskState(state string) {
	adcpTasksTotal.WithLabelValues(state).Inc()
}

// RecordAuthRefusal records a request refused during resolution.
func RecordAuthRefusal(reason string) {
	adcpAuthRefusalsTotal.WithLabelValues(reason).Inc()
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	if success {
		adcpWebhookDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		adcpWebhookDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}

// RecordDeliveryReports records scheduled snapshots pushed in one tick.
func RecordDeliveryReports(count int) {
	adcpDeliveryReportsTotal.Add(float64(count))
}
