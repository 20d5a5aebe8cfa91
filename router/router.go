// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/postboard/cliparse"
	"github.com/danielhkuo/postboard/handlers"
	"github.com/danielhkuo/postboard/metrics"
	"github.com/danielhkuo/postboard/middleware"
)

// NewRouter returns the board's routes wrapped in request-id and panic
// recovery middleware.
func NewRouter(postHandler *handlers.PostHandler, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.TrustProxies(cfg.TrustedProxies)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", metrics.Handler())

	// Board. No method in the pattern: the handlers answer unsupported
	// methods with 400 themselves.
	mux.HandleFunc("/posts", middleware.WithLogging(
		limitWrites(limiter, middleware.RequireUser(cfg.IdentityHeader, postHandler.Posts))))
	mux.HandleFunc("/posts/delete", middleware.WithLogging(
		limitWrites(limiter, middleware.RequireUser(cfg.IdentityHeader, postHandler.Delete))))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/posts", http.StatusFound)
	})

	return middleware.RequestID(middleware.Recover(mux))
}

// limitWrites rate limits everything except reads.
func limitWrites(limiter *middleware.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	limited := middleware.RateLimit(limiter, next)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next(w, r)
			return
		}
		limited(w, r)
	}
}
