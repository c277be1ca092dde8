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
		Namespace: "nearby",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nearby",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	// Search pipeline metrics
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearby",
		Subsystem: "search",
		Name:      "total",
		Help:      "Total proximity searches by outcome",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearby",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "End-to-end proximity search latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearby",
		Subsystem: "search",
		Name:      "results",
		Help:      "Number of places returned per search",
		Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
	})

	// Upstream metrics
	FeatureStoreRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearby",
		Subsystem: "overpass",
		Name:      "requests_total",
		Help:      "Total feature store queries by outcome",
	}, []string{"outcome"})

	FeatureStoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearby",
		Subsystem: "overpass",
		Name:      "request_duration_seconds",
		Help:      "Feature store query latency",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearby",
		Subsystem: "nominatim",
		Name:      "lookups_total",
		Help:      "Total reverse geocoding lookups by outcome",
	}, []string{"outcome"})

	ChatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearby",
		Subsystem: "chat",
		Name:      "replies_total",
		Help:      "Total chat replies by kind and transport",
	}, []string{"kind", "transport"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearby",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
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

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
