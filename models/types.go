// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Form field names
const (
	FieldContent   = "content"
	FieldID        = "id"
	FieldCSRFToken = "csrfToken"
)

// Domain types

type Post struct {
	ID             int64
	Content        string
	PostedBy       string
	TrackingCookie string
	CreatedAt      time.Time
}

// View types

// PostRow is one post as the list view shows it. Content is raw text;
// escaping is the renderer's job.
type PostRow struct {
	ID               int64
	Content          string
	PostedBy         string
	CreatedAt        time.Time
	FormattedCreated string
	Deletable        bool
}

type PostsPage struct {
	Posts      []PostRow
	User       string
	TrackingID string
	CSRFToken  string
}
