package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireUser(t *testing.T) {
	testCases := []struct {
		name         string
		header       string
		setHeader    string
		value        string
		expectStatus int
		expectUser   string
	}{
		{"default header present", "", DefaultIdentityHeader, "alice", http.StatusOK, "alice"},
		{"custom header present", "X-Auth-User", "X-Auth-User", "bob", http.StatusOK, "bob"},
		{"whitespace trimmed", "", DefaultIdentityHeader, "  carol ", http.StatusOK, "carol"},
		{"missing header", "", "", "", http.StatusUnauthorized, ""},
		{"blank header", "", DefaultIdentityHeader, "   ", http.StatusUnauthorized, ""},
		{"wrong header", "X-Auth-User", DefaultIdentityHeader, "alice", http.StatusUnauthorized, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			called := false
			handler := RequireUser(tc.header, func(w http.ResponseWriter, r *http.Request, user string) {
				called = true
				gotUser = user
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/posts", nil)
			if tc.setHeader != "" {
				req.Header.Set(tc.setHeader, tc.value)
			}
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.expectStatus {
				t.Errorf("Expected status %d, got %d", tc.expectStatus, w.Code)
			}
			if tc.expectStatus == http.StatusUnauthorized && called {
				t.Error("Expected next handler not to be called")
			}
			if gotUser != tc.expectUser {
				t.Errorf("Expected user '%s', got '%s'", tc.expectUser, gotUser)
			}
		})
	}
}
