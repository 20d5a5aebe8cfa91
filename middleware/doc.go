// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("/posts", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). Both lines carry the request_id set by RequestID.

# Request IDs and Panics

	server := http.Server{
		Handler: middleware.RequestID(middleware.Recover(mux)),
	}

RequestID reuses an incoming X-Request-Id or generates a UUID. Recover
logs the panic and answers with a plain 500.

# Identity

The board sits behind an authenticating proxy that puts the user name in a
header. RequireUser reads it and passes it on explicitly:

	mux.HandleFunc("/posts", middleware.RequireUser("X-Remote-User", h.Posts))

Missing or blank identity is a 401.

# Rate Limiting

One token bucket per client IP:

	limiter := middleware.NewRateLimiter(5, 10)
	limiter.TrustProxies(cfg.TrustedProxies)
	mux.HandleFunc("/posts/delete", middleware.RateLimit(limiter, handler))

The key is the connection peer. X-Forwarded-For counts only when the peer is
a trusted proxy. Over-budget requests get 429 with Retry-After. The pool is
capped and drops the least recently seen bucket when full.

# Errors

	middleware.TextError(w, http.StatusForbidden)

Writes only the standard status text.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

The headers are client controlled, so this is for logging only. PeerIP
returns the connection address alone.
*/
package middleware
