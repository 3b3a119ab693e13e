// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// staticRoutes need no normalization.
var staticRoutes = map[string]bool{
	"/":                 true,
	"/events":           true,
	"/series":           true,
	"/profiles":         true,
	"/locations/search": true,
	"/health":           true,
	"/ready":            true,
	"/metrics":          true,
}

// eventSubRoutes are the known /events/{id}/... suffixes.
var eventSubRoutes = map[string]bool{
	"join":  true,
	"leave": true,
	"ics":   true,
}

// serieSubRoutes are the known /series/{id}/... suffixes.
var serieSubRoutes = map[string]bool{
	"duration": true,
	"ics":      true,
	"ws":       true,
}

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics. Maps paths like /events/123 to
// /events/{id}.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}

	if strings.HasPrefix(path, "/events/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && eventSubRoutes[parts[3]] {
			return "/events/{id}/" + parts[3]
		}
		if len(parts) == 3 && parts[2] != "" {
			return "/events/{id}"
		}
	}

	if strings.HasPrefix(path, "/series/") {
		parts := strings.Split(path, "/")
		if len(parts) == 5 && parts[3] == "events" && parts[4] != "" {
			// /series/{id}/events/{eventId}
			return "/series/{id}/events/{eventId}"
		}
		if len(parts) == 4 && serieSubRoutes[parts[3]] {
			return "/series/{id}/" + parts[3]
		}
		if len(parts) == 3 && parts[2] != "" {
			return "/series/{id}"
		}
	}

	if strings.HasPrefix(path, "/profiles/") {
		parts := strings.Split(path, "/")
		if len(parts) == 3 && parts[2] != "" {
			return "/profiles/{id}"
		}
	}

	// Unknown patterns pass through unchanged so new routes keep reporting
	// rather than silently vanishing from dashboards.
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// newMetricsResponseWriter creates a new metricsResponseWriter with default 200 status.
func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics is a middleware that records HTTP request metrics: duration,
// request/response sizes, and request counts. Health check endpoints
// (/health, /ready) are excluded to avoid cardinality issues.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				requestSize,
				mrw.size,
			)
		})
	}
}
