// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/postboard/auth"
	"github.com/danielhkuo/postboard/cliparse"
	"github.com/danielhkuo/postboard/db"
)

// TestSecret is a fixed 32-byte tracking secret for tests
var TestSecret = []byte("0123456789abcdef0123456789abcdef")

// SetupTestDB creates a fresh in-memory SQLite database with the full schema.
// Each test gets its own database, named after the test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(context.Background(), db.TypeSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn, db.TypeSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    "file::memory:",
		DatabaseType:   db.TypeSQLite,
		TrackingSecret: TestSecret,
		CSRFBackend:    cliparse.BackendMemory,
		CSRFTTL:        time.Hour,
		TimeZone:       "Asia/Tokyo",
		TimeFormat:     "%Y年%m月%d日 %H時%M分%S秒",
		MaxBodyBytes:   64 << 10,
		IdentityHeader: "X-Remote-User",
		AdminIdentity:  "admin",
	}
}

// NewTestTracker returns a tracker keyed with TestSecret
func NewTestTracker(t *testing.T) *auth.Tracker {
	t.Helper()
	signer, err := auth.NewSigner(TestSecret)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}
	return auth.NewTracker(signer)
}

// TrackingCookie builds a valid tracking cookie for user
func TrackingCookie(t *testing.T, id uint64, user string) *http.Cookie {
	t.Helper()
	signer, err := auth.NewSigner(TestSecret)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}
	tok := auth.TrackingToken{ID: id, Signature: signer.Sign(id, user)}
	return &http.Cookie{Name: auth.TrackingCookieName, Value: tok.String()}
}

// MakeFormRequest creates a URL-encoded form request. The identity header is
// set when user is non-empty.
func MakeFormRequest(method, path string, form url.Values, user string) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if user != "" {
		req.Header.Set("X-Remote-User", user)
	}

	return req
}

// FindCookie returns the named cookie set on the response, or nil
func FindCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 303 to location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %s, got '%s'", location, got)
	}
}
