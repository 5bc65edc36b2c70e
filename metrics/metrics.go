package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CheckoutSessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_checkout_sessions_total",
			Help: "Checkout sessions created with the payment provider",
		},
		[]string{"kind", "currency"},
	)

	ApplicationFeesAssessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_application_fee_minor_units_total",
			Help: "Sum of application fees attached to checkout sessions, in minor units",
		},
		[]string{"currency"},
	)

	CheckoutRefusals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_checkout_refusals_total",
			Help: "Checkout attempts refused before reaching the payment provider",
		},
		[]string{"reason"},
	)

	DuplicatePayments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_duplicate_payments_total",
			Help: "Paid checkout sessions that arrived for an enrollment another session already settled",
		},
	)

	VisibilityTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_listing_visibility_transitions_total",
			Help: "Listing visibility writes by trigger and target state",
		},
		[]string{"trigger", "active"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDurationHistogram,
			CheckoutSessionsCreated,
			ApplicationFeesAssessed,
			CheckoutRefusals,
			DuplicatePayments,
			VisibilityTransitions,
		)
	})
}

// Middleware records request count and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		method := c.Method()

		RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		RequestDurationHistogram.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
