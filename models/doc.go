// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain and view types shared by handlers, storage
and rendering.

# Domain Types

  - Post: a stored message with author, tracking cookie and creation time

# View Types

  - PostsPage: everything the list view needs (posts, user, tokens)
  - PostRow: one post with its formatted timestamp and delete permission

# Form Fields

	FieldContent   = "content"
	FieldID        = "id"
	FieldCSRFToken = "csrfToken"
*/
package models
