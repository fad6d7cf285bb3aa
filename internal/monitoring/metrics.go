package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	SkillsRegistered    prometheus.Counter
	OfferingsRegistered *prometheus.CounterVec
	ExchangesCreated    prometheus.Counter
	ExchangeTransitions *prometheus.CounterVec
	ExchangeContention  *prometheus.CounterVec
	ExchangesByStatus   *prometheus.GaugeVec
	RatingsSubmitted    *prometheus.HistogramVec
	MessagesSent        *prometheus.CounterVec
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"subject_type"},
		),

		// Cache metrics
		CacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		// Database metrics
		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Business metrics
		SkillsRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "skills_registered_total",
				Help: "Total number of skills added to the catalog",
			},
		),
		OfferingsRegistered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skill_offerings_registered_total",
				Help: "Total number of skill offerings registered",
			},
			[]string{"polarity"},
		),
		ExchangesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "exchanges_created_total",
				Help: "Total number of exchanges created",
			},
		),
		ExchangeTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_transitions_total",
				Help: "Total number of exchange state transitions",
			},
			[]string{"from", "to"},
		),
		ExchangeContention: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_contention_total",
				Help: "Total number of exchange writes lost to a concurrent update",
			},
			[]string{"action"},
		),
		ExchangesByStatus: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "exchanges_by_status",
				Help: "Number of exchanges currently in each status",
			},
			[]string{"status"},
		),
		RatingsSubmitted: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_ratings",
				Help:    "Distribution of submitted exchange ratings",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
			[]string{"role"},
		),
		MessagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_sent_total",
				Help: "Total number of messages sent",
			},
			[]string{"linked"},
		),
	}

	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	if metrics == nil {
		return Init()
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordRateLimitHit records a rate limit hit
func RecordRateLimitHit(subjectType string) {
	Get().RateLimitHits.WithLabelValues(subjectType).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	Get().CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	Get().CacheMisses.WithLabelValues(cacheType).Inc()
}

// SetDBConnections sets database connection metrics
func SetDBConnections(active, idle int) {
	Get().DBConnectionsActive.Set(float64(active))
	Get().DBConnectionsIdle.Set(float64(idle))
}

// RecordSkillRegistered records a catalog addition
func RecordSkillRegistered() {
	Get().SkillsRegistered.Inc()
}

// RecordOfferingRegistered records a new offering
func RecordOfferingRegistered(polarity string) {
	Get().OfferingsRegistered.WithLabelValues(polarity).Inc()
}

// RecordExchangeCreated records a new exchange
func RecordExchangeCreated() {
	Get().ExchangesCreated.Inc()
}

// RecordExchangeTransition records a status change
func RecordExchangeTransition(from, to string) {
	Get().ExchangeTransitions.WithLabelValues(from, to).Inc()
}

// RecordExchangeContention records a lost optimistic-concurrency race
func RecordExchangeContention(action string) {
	Get().ExchangeContention.WithLabelValues(action).Inc()
}

// SetExchangesByStatus replaces the per-status exchange gauges
func SetExchangesByStatus(counts map[string]int64) {
	m := Get()
	for status, n := range counts {
		m.ExchangesByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// RecordRating records a submitted rating
func RecordRating(role string, rating int) {
	Get().RatingsSubmitted.WithLabelValues(role).Observe(float64(rating))
}

// RecordMessageSent records a sent message
func RecordMessageSent(linked bool) {
	Get().MessagesSent.WithLabelValues(strconv.FormatBool(linked)).Inc()
}
