package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "restaurantfinder",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Search engine metrics
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "search",
		Name:      "total",
		Help:      "Total searches issued, by trigger and outcome",
	}, []string{"trigger", "outcome"})

	SearchesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "search",
		Name:      "suppressed_total",
		Help:      "Searches dropped by the in-flight guard or cooldown",
	}, []string{"trigger"})

	StaleResponsesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "search",
		Name:      "stale_responses_dropped_total",
		Help:      "Gateway responses discarded because a newer search superseded them",
	})

	// Places gateway metrics
	GatewayRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "restaurantfinder",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Places provider request latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	GatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "gateway",
		Name:      "errors_total",
		Help:      "Non-OK places provider outcomes by status code",
	}, []string{"code"})

	// Widget session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "restaurantfinder",
		Subsystem: "ws",
		Name:      "active_sessions",
		Help:      "Current number of connected widget sessions",
	})

	LiveMarkers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "restaurantfinder",
		Subsystem: "ws",
		Name:      "live_markers",
		Help:      "Markers currently alive across all sessions",
	})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restaurantfinder",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
