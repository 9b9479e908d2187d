package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business rules whose rejections are counted.
const (
	RuleDailyQuota    = "daily_quota"
	RuleTitleConflict = "title_conflict"
	RuleTimeWindow    = "time_window"
	RuleOwnership     = "ownership"
	RuleRateLimit     = "rate_limit"
)

var (
	// HTTPRequestDuration records request latency by route template.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postboard_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// RuleRejections counts requests rejected by a business rule.
	RuleRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_rule_rejections_total",
		Help: "Total number of requests rejected by a business rule",
	}, []string{"rule"})

	// ImageBytesUploaded counts stored image bytes.
	ImageBytesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_image_bytes_uploaded_total",
		Help: "Total number of image bytes accepted for storage",
	})
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, started time.Time) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(started).Seconds())
}

// RecordRejection increments the rejection counter for rule.
func RecordRejection(rule string) {
	RuleRejections.WithLabelValues(rule).Inc()
}
