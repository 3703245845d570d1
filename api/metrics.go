package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "civic_report"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	storeCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_call_duration_seconds",
		Help:      "Latency of calls to the record and attachment stores.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"store", "operation", "result"})

	attachmentsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_dropped_total",
		Help:      "Attachments left out of a report because the upload failed.",
	})

	feedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_events_dropped_total",
		Help:      "Live feed events not delivered because a subscriber was too slow.",
	})
)

// MetricsHandler exposes the collected metrics in the Prometheus text format
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordStoreCall records how long a call to an external store took
func RecordStoreCall(store, operation string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeCalls.WithLabelValues(store, operation, result).Observe(time.Since(started).Seconds())
}

// RecordAttachmentDropped counts an attachment that failed to upload and was skipped
func RecordAttachmentDropped() {
	attachmentsDropped.Inc()
}

// RecordFeedEventDropped counts a live feed event a slow subscriber missed
func RecordFeedEventDropped() {
	feedDropped.Inc()
}
