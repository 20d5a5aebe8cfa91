// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the post board.

# Route Registration

NewRouter wires a PostHandler into an http.ServeMux and wraps it with
request ids and panic recovery:

	handler := router.NewRouter(postHandler, cfg)

# Endpoints

	GET  /health       - Liveness check, body "OK"
	GET  /metrics      - Prometheus metrics
	GET  /             - Redirect to /posts
	GET  /posts        - List posts
	POST /posts        - Create a post
	POST /posts/delete - Delete a post

The /posts routes require the identity header (IDENTITY_HEADER, default
X-Remote-User) and are logged with middleware.WithLogging. Non-GET requests
to them are rate limited per client IP.
*/
package router
