// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// DefaultIdentityHeader is set by the authenticating reverse proxy.
const DefaultIdentityHeader = "X-Remote-User"

// UserHandlerFunc is a handler that receives the authenticated identity
// as an explicit argument.
type UserHandlerFunc func(w http.ResponseWriter, r *http.Request, user string)

// RequireUser reads the identity the proxy put in header and passes it to
// next. Requests without one get 401 and never reach next.
func RequireUser(header string, next UserHandlerFunc) http.HandlerFunc {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(header))
		if user == "" {
			slog.Warn("request without identity",
				"path", r.URL.Path,
				"remote", GetClientIP(r),
				"request_id", RequestIDFrom(r.Context()),
			)
			TextError(w, http.StatusUnauthorized)
			return
		}
		next(w, r, user)
	}
}
