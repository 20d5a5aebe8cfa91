// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the postboard server.

postboard is a small bulletin board that sits behind an authenticating
reverse proxy. Users list posts, write new ones and delete their own; an
admin identity can delete any post. Every form carries a single-use CSRF
token, and every visitor carries an HMAC-signed tracking cookie bound to
their identity.

# Starting the Server

The server needs a tracking secret (hex, at least 32 bytes):

	TRACKING_SECRET=$(openssl rand -hex 32) go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -secret ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - TRACKING_SECRET (-secret): key for tracking cookie signatures

Optional settings (see package cliparse for the full list):

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t) and DATABASE_URL (-d): sqlite (default) or postgres
  - CSRF_BACKEND: memory (default) or redis, with REDIS_URL
  - IDENTITY_HEADER: header set by the proxy (default: X-Remote-User)

# Architecture

  - handlers: the post board request handler
  - router: route definitions using Go 1.22+ routing
  - middleware: logging, request ids, identity, rate limiting
  - auth: tracking ids, HMAC signer and tracking cookie resolution
  - csrf: single-use token stores (memory, Redis)
  - db: schema and post storage (SQLite, PostgreSQL)
  - views: HTML templates and timestamp formatting
  - metrics: Prometheus counters
  - models: shared types
  - cliparse: configuration parsing

Logs are JSON unless stdout is a terminal.

See package documentation for each component.
*/
package main
