// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielhkuo/postboard/auth"
	"github.com/danielhkuo/postboard/cliparse"
	"github.com/danielhkuo/postboard/csrf"
	"github.com/danielhkuo/postboard/db"
	"github.com/danielhkuo/postboard/metrics"
	"github.com/danielhkuo/postboard/middleware"
	"github.com/danielhkuo/postboard/models"
	"github.com/danielhkuo/postboard/views"
)

const (
	postsPath           = "/posts"
	defaultMaxBodyBytes = 64 << 10
	defaultAdmin        = "admin"
)

// PostStore persists posts. FindPost and DeletePost return
// db.ErrPostNotFound for a missing row.
type PostStore interface {
	CreatePost(ctx context.Context, content, trackingCookie, postedBy string) (models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	FindPost(ctx context.Context, id int64) (models.Post, error)
	DeletePost(ctx context.Context, post models.Post) error
}

// Renderer writes the list view. Content arrives unescaped.
type Renderer interface {
	RenderPosts(w io.Writer, page models.PostsPage) error
}

type PostHandler struct {
	store   PostStore
	views   Renderer
	tokens  csrf.Store
	tracker *auth.Tracker
	times   *views.TimeFormatter
	cfg     cliparse.Config
}

func NewPostHandler(store PostStore, renderer Renderer, tokens csrf.Store, tracker *auth.Tracker, times *views.TimeFormatter, cfg cliparse.Config) *PostHandler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.AdminIdentity == "" {
		cfg.AdminIdentity = defaultAdmin
	}
	return &PostHandler{
		store:   store,
		views:   renderer,
		tokens:  tokens,
		tracker: tracker,
		times:   times,
		cfg:     cfg,
	}
}

// Posts handles GET /posts (list) and POST /posts (create)
func (h *PostHandler) Posts(w http.ResponseWriter, r *http.Request, user string) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r, user)
	case http.MethodPost:
		h.create(w, r, user)
	default:
		h.reject(w, http.StatusBadRequest, metrics.ReasonMethod)
	}
}

// Delete handles POST /posts/delete
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request, user string) {
	if r.Method != http.MethodPost {
		h.reject(w, http.StatusBadRequest, metrics.ReasonMethod)
		return
	}
	h.delete(w, r, user)
}

func (h *PostHandler) list(w http.ResponseWriter, r *http.Request, user string) {
	ctx := r.Context()

	tracking, err := h.track(w, r, user)
	if err != nil {
		h.serverError(w, r, "failed to issue tracking token", err)
		return
	}

	token, err := h.tokens.Issue(ctx, user)
	if err != nil {
		h.serverError(w, r, "failed to issue csrf token", err)
		return
	}
	metrics.CSRFIssued.Inc()

	posts, err := h.store.ListPosts(ctx)
	if err != nil {
		h.serverError(w, r, "failed to list posts", err)
		return
	}

	page := models.PostsPage{
		Posts:      make([]models.PostRow, 0, len(posts)),
		User:       user,
		TrackingID: tracking.String(),
		CSRFToken:  token,
	}
	for _, p := range posts {
		page.Posts = append(page.Posts, models.PostRow{
			ID:               p.ID,
			Content:          p.Content,
			PostedBy:         p.PostedBy,
			CreatedAt:        p.CreatedAt,
			FormattedCreated: h.times.Format(p.CreatedAt),
			Deletable:        h.canDelete(user, tracking, p),
		})
	}

	// Render fully before committing to 200
	var buf bytes.Buffer
	if err := h.views.RenderPosts(&buf, page); err != nil {
		h.serverError(w, r, "failed to render posts", err)
		return
	}

	slog.Info("viewed",
		"user", user,
		"tracking_id", tracking.String(),
		"remote", middleware.GetClientIP(r),
		"user_agent", r.UserAgent(),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("failed to write response", "error", err, "request_id", middleware.RequestIDFrom(r.Context()))
	}
}

func (h *PostHandler) create(w http.ResponseWriter, r *http.Request, user string) {
	ctx := r.Context()

	tracking, err := h.track(w, r, user)
	if err != nil {
		h.serverError(w, r, "failed to issue tracking token", err)
		return
	}

	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	if !form.Has(models.FieldContent) || !form.Has(models.FieldCSRFToken) {
		h.reject(w, http.StatusBadRequest, metrics.ReasonMissingField)
		return
	}
	content := form.Get(models.FieldContent)
	if !h.cfg.AllowBlankContent && strings.TrimSpace(content) == "" {
		h.reject(w, http.StatusBadRequest, metrics.ReasonBlankContent)
		return
	}

	token := form.Get(models.FieldCSRFToken)
	if !h.consume(w, r, user, token) {
		return
	}

	// The token is spent by now, so it's safe to log
	slog.Info("posted",
		"remote", middleware.GetClientIP(r),
		"uri", r.RequestURI,
		"user_agent", r.UserAgent(),
		"user", user,
		"tracking_id", tracking.String(),
		"csrf_token", token,
		"content", content,
	)

	post, err := h.store.CreatePost(ctx, content, tracking.String(), user)
	if err != nil {
		h.serverError(w, r, "failed to create post", err)
		return
	}
	metrics.PostsCreated.Inc()

	slog.Debug("post stored", "post_id", post.ID)
	http.Redirect(w, r, postsPath, http.StatusSeeOther)
}

func (h *PostHandler) delete(w http.ResponseWriter, r *http.Request, user string) {
	ctx := r.Context()

	tracking, err := h.track(w, r, user)
	if err != nil {
		h.serverError(w, r, "failed to issue tracking token", err)
		return
	}

	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	if !form.Has(models.FieldID) || !form.Has(models.FieldCSRFToken) {
		h.reject(w, http.StatusBadRequest, metrics.ReasonMissingField)
		return
	}
	id, err := strconv.ParseInt(form.Get(models.FieldID), 10, 64)
	if err != nil {
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidField)
		return
	}

	if !h.consume(w, r, user, form.Get(models.FieldCSRFToken)) {
		return
	}

	post, err := h.store.FindPost(ctx, id)
	if errors.Is(err, db.ErrPostNotFound) {
		middleware.TextError(w, http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to find post", err)
		return
	}

	if !h.canDelete(user, tracking, post) {
		slog.Warn("delete refused",
			"user", user,
			"tracking_id", tracking.String(),
			"remote", middleware.GetClientIP(r),
			"post_id", post.ID,
			"posted_by", post.PostedBy,
		)
		h.reject(w, http.StatusForbidden, metrics.ReasonForbidden)
		return
	}

	if err := h.store.DeletePost(ctx, post); err != nil {
		if errors.Is(err, db.ErrPostNotFound) {
			middleware.TextError(w, http.StatusNotFound)
			return
		}
		h.serverError(w, r, "failed to delete post", err)
		return
	}
	metrics.PostsDeleted.Inc()

	slog.Info("deleted",
		"user", user,
		"tracking_id", tracking.String(),
		"remote", middleware.GetClientIP(r),
		"user_agent", r.UserAgent(),
		"post_id", post.ID,
		"posted_by", post.PostedBy,
		"content", post.Content,
	)

	http.Redirect(w, r, postsPath, http.StatusSeeOther)
}

// canDelete allows the admin, or the author. With DeleteRequiresTracking the
// author must also present the tracking token the post was created with.
func (h *PostHandler) canDelete(user string, tracking auth.TrackingToken, post models.Post) bool {
	if user == h.cfg.AdminIdentity {
		return true
	}
	if user != post.PostedBy {
		return false
	}
	if h.cfg.DeleteRequiresTracking {
		return tracking.String() == post.TrackingCookie
	}
	return true
}

// track validates the tracking cookie, setting a fresh one when needed.
func (h *PostHandler) track(w http.ResponseWriter, r *http.Request, user string) (auth.TrackingToken, error) {
	var value string
	c, err := r.Cookie(auth.TrackingCookieName)
	present := err == nil
	if present {
		value = c.Value
	}

	res, err := h.tracker.Resolve(value, present, user)
	if err != nil {
		return auth.TrackingToken{}, err
	}
	if res.Reissued {
		metrics.TrackingIssued.Inc()
		http.SetCookie(w, &http.Cookie{
			Name:     auth.TrackingCookieName,
			Value:    res.Token.String(),
			Path:     "/",
			Expires:  res.Expires,
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return res.Token, nil
}

// readForm reads the whole body, bounded by MaxBodyBytes, as a URL-encoded form.
func (h *PostHandler) readForm(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, http.StatusRequestEntityTooLarge, metrics.ReasonTooLarge)
			return nil, false
		}
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidField)
		return nil, false
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		h.reject(w, http.StatusBadRequest, metrics.ReasonInvalidField)
		return nil, false
	}
	return form, true
}

// consume spends the user's CSRF token, writing the error response on failure.
func (h *PostHandler) consume(w http.ResponseWriter, r *http.Request, user, token string) bool {
	ok, err := h.tokens.Consume(r.Context(), user, token)
	if err != nil {
		h.serverError(w, r, "failed to check csrf token", err)
		return false
	}
	if !ok {
		slog.Warn("csrf token rejected",
			"user", user,
			"remote", middleware.GetClientIP(r),
			"request_id", middleware.RequestIDFrom(r.Context()),
		)
		h.reject(w, http.StatusBadRequest, metrics.ReasonCSRF)
		return false
	}
	return true
}

func (h *PostHandler) reject(w http.ResponseWriter, code int, reason string) {
	metrics.Rejected.WithLabelValues(reason).Inc()
	middleware.TextError(w, code)
}

func (h *PostHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "request_id", middleware.RequestIDFrom(r.Context()))
	middleware.TextError(w, http.StatusInternalServerError)
}
