package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// unmatchedRoute labels requests that no route pattern matched.
const unmatchedRoute = "unmatched"

// RequestMetrics are the collectors updated for every request.
type RequestMetrics struct {
	Total    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// WithRequestLogging logs every request with its status, size and duration,
// and updates m when it is non-nil.
func WithRequestLogging(logger *zap.Logger, m *RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			// Metric labels use the matched pattern only, so unknown paths share one series.
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)

			if m != nil {
				m.Total.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				m.Duration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}
		})
	}
}
