// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts served requests by route pattern and status class.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surf_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration observes request latency by route pattern.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surf_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// FriendRequestOutcomes counts friend-request sends by outcome
	// (created, already_friends, request_exists, invalid_target).
	FriendRequestOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surf_friend_requests_total",
			Help: "Friend request send attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Register installs the collectors on the default registry.
func Register() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, FriendRequestOutcomes)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
