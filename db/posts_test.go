package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := Open(context.Background(), TypeSQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, CreateSchema(context.Background(), conn, TypeSQLite))
	return conn
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestCreateSchema_Idempotent(t *testing.T) {
	conn := setupSQLite(t)
	require.NoError(t, CreateSchema(context.Background(), conn, TypeSQLite))
	require.ErrorIs(t, CreateSchema(context.Background(), conn, "oracle"), ErrUnknownType)
}

func TestPostStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(setupSQLite(t), TypeSQLite)
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	created, err := store.CreatePost(ctx, "Hello\nworld", "42_abc", "guest1")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "Hello\nworld", created.Content)
	require.Equal(t, "guest1", created.PostedBy)
	require.Equal(t, "42_abc", created.TrackingCookie)

	found, err := store.FindPost(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)
	require.Equal(t, "Hello\nworld", found.Content)
	require.Equal(t, "guest1", found.PostedBy)
	require.Equal(t, "42_abc", found.TrackingCookie)
	require.True(t, fixed.Equal(found.CreatedAt), "created_at = %v", found.CreatedAt)
}

func TestPostStore_ListDescending(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(setupSQLite(t), TypeSQLite)

	empty, err := store.ListPosts(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	for _, c := range []string{"first", "second", "third"} {
		_, err := store.CreatePost(ctx, c, "", "guest1")
		require.NoError(t, err)
	}

	posts, err := store.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	require.Equal(t, "third", posts[0].Content)
	require.Equal(t, "first", posts[2].Content)
	require.Greater(t, posts[0].ID, posts[1].ID)
	require.Greater(t, posts[1].ID, posts[2].ID)
}

func TestPostStore_FindMissing(t *testing.T) {
	store := NewPostStore(setupSQLite(t), TypeSQLite)

	_, err := store.FindPost(context.Background(), 999)
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(setupSQLite(t), TypeSQLite)

	p, err := store.CreatePost(ctx, "bye", "", "guest1")
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, p))

	_, err = store.FindPost(ctx, p.ID)
	require.ErrorIs(t, err, ErrPostNotFound)

	err = store.DeletePost(ctx, p)
	require.True(t, errors.Is(err, ErrPostNotFound), "second delete: %v", err)
}

func TestPostStore_RawContentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(setupSQLite(t), TypeSQLite)

	raw := "<script>alert('x')</script> & \"quotes\""
	p, err := store.CreatePost(ctx, raw, "", "guest1")
	require.NoError(t, err)

	found, err := store.FindPost(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, raw, found.Content, "storage must not escape or sanitize")
}

func TestRebind(t *testing.T) {
	pg := &PostStore{dbType: TypePostgres}
	require.Equal(t, "SELECT $1, $2, $3", pg.rebind("SELECT ?, ?, ?"))

	lite := &PostStore{dbType: TypeSQLite}
	require.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}
