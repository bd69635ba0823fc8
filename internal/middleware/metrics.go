package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/classroom/internal/metrics"
)

// unmatchedRoute labels requests that reached no route, so scanners probing
// random paths cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that counts and times requests per route
// pattern ("/api/classes/{id}", not "/api/classes/42"). m may be nil.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			// The pattern is only complete after routing has finished.
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}
