// internal/api/middleware.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"opportunity-engine/internal/common/config"
	"opportunity-engine/internal/common/errors"
	"opportunity-engine/internal/common/metrics"
)

// requestLogger logs every request once it completes and records its
// duration under the matched route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withStart(r.Context(), start)))

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := map[string]interface{}{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"bytes":      ww.BytesWritten(),
			"durationMs": elapsed.Milliseconds(),
			"requestId":  chimiddleware.GetReqID(r.Context()),
			"remoteAddr": r.RemoteAddr,
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("http request", fields)
		case status >= http.StatusBadRequest:
			s.logger.Warn("http request", fields)
		default:
			s.logger.Info("http request", fields)
		}
	})
}

func corsHandler(cfg config.ServerConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", chimiddleware.RequestIDHeader},
		ExposedHeaders: []string{chimiddleware.RequestIDHeader},
		MaxAge:         300,
	})
}

// rateLimit limits each client IP. A non-positive request budget disables it.
func (s *Server) rateLimit(cfg config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		config.GetDuration(cfg.RateLimitWindow),
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.writeJSON(w, r, http.StatusTooManyRequests, &Response{
				Error: &ErrorBody{
					Code:      "RATE_LIMITED",
					Message:   "Too many requests",
					RequestID: chimiddleware.GetReqID(r.Context()),
				},
				Meta: metaFor(r),
			})
		}),
	)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errors.NewNotFoundError("route", r.URL.Path))
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	meta := metaFor(r)
	s.writeJSON(w, r, http.StatusMethodNotAllowed, &Response{
		Error: &ErrorBody{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   r.Method + " is not allowed on " + r.URL.Path,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}
