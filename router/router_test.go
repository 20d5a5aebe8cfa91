// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/postboard/cliparse"
	"github.com/danielhkuo/postboard/csrf"
	"github.com/danielhkuo/postboard/db"
	"github.com/danielhkuo/postboard/handlers"
	"github.com/danielhkuo/postboard/testutil"
	"github.com/danielhkuo/postboard/views"
)

func setupRouter(t *testing.T, cfg cliparse.Config) http.Handler {
	t.Helper()

	store := db.NewPostStore(testutil.SetupTestDB(t), db.TypeSQLite)
	renderer, err := views.New()
	if err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}
	times, err := views.NewTimeFormatter(cfg.TimeZone, cfg.TimeFormat)
	if err != nil {
		t.Fatalf("Failed to create time formatter: %v", err)
	}
	tokens := csrf.NewMemoryStore(cfg.CSRFTTL)
	t.Cleanup(func() { tokens.Close() })

	h := handlers.NewPostHandler(store, renderer, tokens, testutil.NewTestTracker(t), times, cfg)
	return NewRouter(h, cfg)
}

func TestHealthEndpoint(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Errorf("Expected status 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/posts" {
		t.Errorf("Expected redirect to /posts, got '%s'", loc)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	// Generate a rejection so the vector has a sample
	mux.ServeHTTP(httptest.NewRecorder(), testutil.MakeFormRequest("PUT", "/posts", nil, "guest1"))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	for _, name := range []string{"postboard_posts_created_total", "postboard_requests_rejected_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("Expected metric %s in output", name)
		}
	}
}

func TestRouteExistence(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	testCases := []struct {
		name         string
		method       string
		path         string
		user         string
		expectStatus int
	}{
		{"list", "GET", "/posts", "guest1", http.StatusOK},
		{"list without identity", "GET", "/posts", "", http.StatusUnauthorized},
		{"create without identity", "POST", "/posts", "", http.StatusUnauthorized},
		{"delete without identity", "POST", "/posts/delete", "", http.StatusUnauthorized},
		{"create without form", "POST", "/posts", "guest1", http.StatusBadRequest},
		{"delete without form", "POST", "/posts/delete", "guest1", http.StatusBadRequest},
		{"unsupported method on posts", "PUT", "/posts", "guest1", http.StatusBadRequest},
		{"unsupported method on delete", "GET", "/posts/delete", "guest1", http.StatusBadRequest},
		{"unknown path", "GET", "/nope", "guest1", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeFormRequest(tc.method, tc.path, nil, tc.user)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tc.expectStatus)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Error("Expected X-Request-Id on every response")
	}
}

func TestCustomIdentityHeader(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.IdentityHeader = "X-Forwarded-User"
	mux := setupRouter(t, cfg)

	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("X-Forwarded-User", "guest1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// The default header is no longer trusted
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeFormRequest("GET", "/posts", nil, "guest1"))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestRateLimitOnWrites(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	mux := setupRouter(t, cfg)

	form := url.Values{"content": {"x"}, "csrfToken": {"bad"}}
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeFormRequest("POST", "/posts", form, "guest1"))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [400 400 429], got %v", codes)
	}

	// Reads are never limited
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, testutil.MakeFormRequest("GET", "/posts", nil, "guest1"))
		testutil.AssertStatus(t, w, http.StatusOK)
	}
}

func TestRateLimitForwardedFor(t *testing.T) {
	post := func(mux http.Handler, remote, xff string) int {
		form := url.Values{"content": {"x"}, "csrfToken": {"bad"}}
		req := testutil.MakeFormRequest("POST", "/posts", form, "guest1")
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w.Code
	}

	cfg := testutil.GetTestConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1

	// A direct client can't buy a new bucket with a new header
	mux := setupRouter(t, cfg)
	if code := post(mux, "198.51.100.7:4000", "203.0.113.1"); code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", code)
	}
	if code := post(mux, "198.51.100.7:4000", "203.0.113.2"); code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", code)
	}

	// Behind a trusted proxy each forwarded client has its own bucket
	cfg.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	mux = setupRouter(t, cfg)
	if code := post(mux, "10.0.0.1:4000", "203.0.113.1"); code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", code)
	}
	if code := post(mux, "10.0.0.1:4000", "203.0.113.2"); code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", code)
	}
	if code := post(mux, "10.0.0.1:4000", "203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", code)
	}
}

func TestFullFlowThroughRouter(t *testing.T) {
	mux := setupRouter(t, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeFormRequest("GET", "/posts", nil, "guest1"))
	testutil.AssertStatus(t, w, http.StatusOK)

	body := w.Body.String()
	const marker = `name="csrfToken" value="`
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatal("Expected CSRF field in page")
	}
	token := body[i+len(marker) : i+len(marker)+2*csrf.TokenBytes]

	form := url.Values{"content": {"via router"}, "csrfToken": {token}}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeFormRequest("POST", "/posts", form, "guest1"))
	testutil.AssertRedirect(t, w, "/posts")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeFormRequest("GET", "/posts", nil, "guest1"))
	if !strings.Contains(w.Body.String(), "via router") {
		t.Error("Expected new post in list")
	}
}
