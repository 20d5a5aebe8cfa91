// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema and stores posts.

# Connecting

Both SQLite (modernc.org/sqlite, pure Go) and PostgreSQL (lib/pq) are
supported:

	conn, err := db.Open(ctx, db.TypeSQLite, "file:postboard.db")
	if err := db.CreateSchema(ctx, conn, db.TypeSQLite); err != nil {
		log.Fatal(err)
	}

CreateSchema is safe to call multiple times - it uses IF NOT EXISTS.

# Tables

  - post: id, content, posted_by, tracking_cookie, created_at

# Post Storage

PostStore implements the storage collaborator used by handlers:

	store := db.NewPostStore(conn, db.TypeSQLite)
	post, err := store.CreatePost(ctx, "hello", trackingID, "guest1")
	posts, err := store.ListPosts(ctx)    // newest id first
	post, err = store.FindPost(ctx, 7)    // ErrPostNotFound if missing
	err = store.DeletePost(ctx, post)

Queries are written with '?' placeholders and rebound to $n for PostgreSQL.
*/
package db
