package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// operation: create_post / edit_post / add_comment / follow / unfollow
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "mutations_total",
		Help:      "Mutation attempts by operation and outcome.",
	}, []string{"operation", "outcome"})

	PageCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "page_cache_total",
		Help:      "Page cache lookups by result.",
	}, []string{"result"})

	NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "notifications_delivered_total",
		Help:      "Post notifications queued to connected followers.",
	})
)

// 记录一次变更操作的结果
func ObserveMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Mutations.WithLabelValues(operation, outcome).Inc()
}
