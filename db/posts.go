// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/postboard/models"
)

var ErrPostNotFound = errors.New("post not found")

// PostStore persists posts in the post table.
type PostStore struct {
	db     *sql.DB
	dbType string
	now    func() time.Time
}

func NewPostStore(db *sql.DB, dbType string) *PostStore {
	return &PostStore{db: db, dbType: dbType, now: time.Now}
}

// rebind rewrites '?' placeholders as $1, $2... for PostgreSQL.
func (s *PostStore) rebind(query string) string {
	if s.dbType != TypePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// CreatePost inserts a post and returns it with its assigned id.
func (s *PostStore) CreatePost(ctx context.Context, content, trackingCookie, postedBy string) (models.Post, error) {
	post := models.Post{
		Content:        content,
		PostedBy:       postedBy,
		TrackingCookie: trackingCookie,
		CreatedAt:      s.now().UTC().Truncate(time.Microsecond),
	}

	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO post (content, posted_by, tracking_cookie, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), post.Content, post.PostedBy, post.TrackingCookie, post.CreatedAt).Scan(&post.ID)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

// ListPosts returns every post, newest id first.
func (s *PostStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, posted_by, tracking_cookie, created_at
		FROM post
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Content, &p.PostedBy, &p.TrackingCookie, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}

	return posts, nil
}

// FindPost returns ErrPostNotFound when no post has the id.
func (s *PostStore) FindPost(ctx context.Context, id int64) (models.Post, error) {
	var p models.Post
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, content, posted_by, tracking_cookie, created_at
		FROM post
		WHERE id = ?
	`), id).Scan(&p.ID, &p.Content, &p.PostedBy, &p.TrackingCookie, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Post{}, ErrPostNotFound
	}
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to query post: %w", err)
	}

	return p, nil
}

// DeletePost removes the post. It returns ErrPostNotFound if the row was
// already gone.
func (s *PostStore) DeletePost(ctx context.Context, post models.Post) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM post WHERE id = ?`), post.ID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}
