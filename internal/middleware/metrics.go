package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/surfsocial/backend/internal/metrics"
)

// Metrics records request counts and latency per registered route. Routes are
// resolved through the mux's pattern match, keeping label cardinality bounded
// regardless of path parameters.
func Metrics(mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(wrapped, r)

			_, route := mux.Handler(r)
			if route == "" {
				route = "unmatched"
			}

			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.Status())).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
