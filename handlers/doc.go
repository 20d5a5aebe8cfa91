// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for the post board.

# Handler Types

PostHandler serves the board. Its collaborators are interfaces so that
storage and rendering can be swapped in tests:

  - PostStore: create, list (newest first), find and delete posts
  - Renderer: writes the list page
  - csrf.Store: single-use anti-forgery tokens per user

	postHandler := handlers.NewPostHandler(store, renderer, tokens, tracker, times, cfg)

# Identity

Entry points take the authenticated user as an explicit argument. The
router wraps them with middleware.RequireUser:

	mux.HandleFunc("/posts", middleware.RequireUser(cfg.IdentityHeader, postHandler.Posts))

# Routes

	GET  /posts        → list; issues a CSRF token, 200 HTML
	POST /posts        → create; content + csrfToken, 303 to /posts
	POST /posts/delete → delete; id + csrfToken, 303 to /posts

Any other method is a 400. Missing fields and a bad or replayed CSRF
token are 400s. Deleting someone else's post is a 403 unless the user is
the configured admin; a missing post is a 404. Storage failures are 500s
and never redirect.

# Tracking Cookie

Every route validates the tracking_id cookie against the user. A missing,
malformed or foreign cookie is silently replaced with a fresh one
(24h, HttpOnly, SameSite=Lax). New posts record the cookie value, and with
DeleteRequiresTracking the author must present it again to delete.

# Logging

Each successful operation logs a viewed, posted or deleted event with the
user, tracking id, client IP and user agent.
*/
package handlers
