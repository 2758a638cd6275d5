// Package middleware provides the HTTP middleware shared by the API server:
// request IDs, CORS, Prometheus metrics, write rate limiting and timeouts.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
)

// Metrics records HTTP request count, latency and the in-flight gauge.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			path := normalizePath(r.URL.Path)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.wroteHeader = true
	}
	return sw.ResponseWriter.Write(b)
}

var knownPaths = map[string]bool{
	"/documents":         true,
	"/documents/bulk":    true,
	"/clustering":        true,
	"/analyze":           true,
	"/corpus/categories": true,
	"/corpus/stats":      true,
	"/analytics":         true,
	"/analytics/history": true,
	"/cache/stats":       true,
	"/cache/invalidate":  true,
	"/health/live":       true,
	"/health/ready":      true,
}

// normalizePath keeps the label set bounded: the method segment of search
// routes is collapsed and unknown paths share one label.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/search/") {
		return "/search/{method}"
	}
	if knownPaths[path] {
		return path
	}
	return "other"
}
