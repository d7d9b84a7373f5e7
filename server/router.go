// Package server wires the lock API routes and middleware.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/lockservice/auth"
	"github.com/ebogdum/lockservice/config"
	"github.com/ebogdum/lockservice/core"
	_ "github.com/ebogdum/lockservice/docs"
	"github.com/ebogdum/lockservice/metrics"
	"github.com/ebogdum/lockservice/server/handlers"
	authMiddleware "github.com/ebogdum/lockservice/server/middleware"
)

// RouterOptions carries the optional parts of the router.
type RouterOptions struct {
	// Authenticator guards the lock routes. Nil disables authentication.
	Authenticator auth.Authenticator
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
	// Limits configures the shared rate limiter of the lock routes.
	Limits config.LimitsConfig
	// ServeMetrics exposes /metrics on this router.
	ServeMetrics bool
}

// NewRouter creates and configures the HTTP router
func NewRouter(engine *core.Engine, opts RouterOptions, logger *zap.Logger) chi.Router {
	metrics.RegisterMetrics()

	r := chi.NewRouter()

	// Basic middleware
	r.Use(authMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(authMiddleware.V1SecurityHeaders())
	r.Use(requestLogger(logger))

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.SendJSONResponse(w, map[string]string{"status": "ok"})
	})

	if opts.ServeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/swagger/doc.json", handlers.V1SwaggerDoc(logger))

	var limiter *rate.Limiter
	if opts.Limits.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Limits.RateLimitRPS), opts.Limits.RateLimitBurst)
	}

	r.Route("/api/lock", func(r chi.Router) {
		r.Use(authMiddleware.V1RateLimitMiddleware(limiter, logger))
		if opts.Authenticator != nil {
			r.Use(authMiddleware.V1AuthMiddleware(opts.Authenticator, logger))
		}

		r.Post("/acquire", handlers.V1AcquireLock(engine, logger))
		r.Post("/heartbeat", handlers.V1Heartbeat(engine, logger))
		r.Post("/release", handlers.V1ReleaseLock(engine, logger))
		r.Get("/status", handlers.V1LockStatus(engine, logger))
	})

	logger.Info("HTTP router configured successfully",
		zap.Bool("auth_enabled", opts.Authenticator != nil),
		zap.Bool("rate_limit_enabled", limiter != nil))

	return r
}

// requestLogger records request metrics and logs one line per request.
// Routes are labelled by pattern so lock ids never become label values.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("request_id", authMiddleware.GetRequestID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
