package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Page cache metrics
	PageCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogfeed_page_cache_requests_total",
			Help: "Index page cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	PageCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blogfeed_page_cache_entries",
			Help: "Number of rendered index pages currently cached",
		},
	)

	// Feed metrics
	FeedBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogfeed_feed_build_duration_seconds",
			Help:    "Time taken to assemble a feed page by feed kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Follow metrics
	FollowMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogfeed_follow_mutations_total",
			Help: "Follow and unfollow calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blogfeed_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blogfeed_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(PageCacheRequests)
	prometheus.MustRegister(PageCacheEntries)
	prometheus.MustRegister(FeedBuildDuration)
	prometheus.MustRegister(FollowMutations)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation and reports it to a histogram
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time on the histogram
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
