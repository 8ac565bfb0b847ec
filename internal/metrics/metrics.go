package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all Prometheus metrics for the claim service. A nil
// *Registry is valid and records nothing.
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search Metrics
	SearchRequestsTotal  *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
	RateLimitWait        *prometheus.HistogramVec
	StaleSearchResults   prometheus.Counter

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Store Metrics
	StoreMutationsTotal *prometheus.CounterVec
	SessionsActive      prometheus.Gauge
}

// New registers every metric on reg.
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)
	return &Registry{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightclaim_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightclaim_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		SearchRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightclaim_search_requests_total",
				Help: "Flight searches by outcome (ok, empty, failed, invalid)",
			},
			[]string{"outcome"},
		),
		CollaboratorDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightclaim_collaborator_duration_seconds",
				Help:    "Latency of calls to the external search collaborator",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		RateLimitWait: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flightclaim_ratelimit_wait_seconds",
				Help:    "Time collaborator calls waited for a rate limit token",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"endpoint"},
		),
		StaleSearchResults: f.NewCounter(
			prometheus.CounterOpts{
				Name: "flightclaim_stale_search_results_total",
				Help: "Search results discarded because the segment changed meanwhile",
			},
		),
		CacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightclaim_cache_hits_total",
				Help: "Total cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightclaim_cache_misses_total",
				Help: "Total cache misses by cache name",
			},
			[]string{"cache"},
		),
		StoreMutationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flightclaim_store_mutations_total",
				Help: "Segment store mutations by operation",
			},
			[]string{"op"},
		),
		SessionsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "flightclaim_sessions_active",
				Help: "Claim sessions currently held in memory",
			},
		),
	}
}

func (r *Registry) ObserveSearch(outcome string) {
	if r == nil {
		return
	}
	r.SearchRequestsTotal.WithLabelValues(outcome).Inc()
}

func (r *Registry) ObserveCollaborator(endpoint string, started time.Time) {
	if r == nil {
		return
	}
	r.CollaboratorDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

func (r *Registry) ObserveRateLimitWait(endpoint string, waited time.Duration) {
	if r == nil {
		return
	}
	r.RateLimitWait.WithLabelValues(endpoint).Observe(waited.Seconds())
}

func (r *Registry) ObserveCache(cache string, hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	r.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func (r *Registry) ObserveMutation(op string) {
	if r == nil {
		return
	}
	r.StoreMutationsTotal.WithLabelValues(op).Inc()
}

func (r *Registry) ObserveStaleSearch() {
	if r == nil {
		return
	}
	r.StaleSearchResults.Inc()
}

func (r *Registry) SetSessions(n int) {
	if r == nil {
		return
	}
	r.SessionsActive.Set(float64(n))
}

// Middleware records request count and latency per route.
func (r *Registry) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unknown"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			r.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
			r.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
