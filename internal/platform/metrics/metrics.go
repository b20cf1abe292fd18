// Package metrics registers the server's Prometheus collectors and exposes
// them over HTTP.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salon/salon/pkg/apierror"
)

var (
	once sync.Once

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, path, and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "bookings_created_total",
			Help:      "Bookings created, by service.",
		},
		[]string{"service"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "availability_checks_total",
			Help:      "Availability checks by result (free, occupied, invalid, error).",
		},
		[]string{"result"},
	)
)

// Register registers all collectors. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpDuration, bookingsCreated, bookingConflicts, availabilityChecks)
	})
}

// BookingCreated increments the created counter for a service id.
func BookingCreated(service string) { bookingsCreated.WithLabelValues(service).Inc() }

// BookingConflict increments the slot-conflict counter.
func BookingConflict() { bookingConflicts.Inc() }

// AvailabilityCheck increments the availability counter for a result label.
func AvailabilityCheck(result string) { availabilityChecks.WithLabelValues(result).Inc() }

// Middleware records request latency per route. The route template (not the
// raw URL) is used as the path label to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			// The error handler has not run yet, so the response status
			// still reads 200 for errored requests. Resolve the status
			// from the error itself.
			status := c.Response().Status
			if err != nil {
				status = apierror.StatusOf(err)
			}
			httpDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus text exposition endpoint.
func Handler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
