package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/navbryce/next-post-be/config"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := GetDatabase(context.Background(), config.DBProperties{
		Adapter:      config.DbAdapterSQLite,
		SQLitePath:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		EnsureSchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.PostDB.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func createPost(t *testing.T, store *SQLStore, title string) *model.Post {
	t.Helper()
	post, err := store.CreatePost(context.Background(), &appDb.CreatePost{
		Id:          uuid.NewString(),
		Title:       title,
		Description: "World",
		MainContent: "text",
		AuthorEmail: "A@x.com",
	})
	require.NoError(t, err)
	return post
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestCreatePostStartsPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	post := createPost(t, store, "Hello")

	assert.False(t, post.IsPublic)
	assert.Nil(t, post.Content)
	assert.Nil(t, post.ContentType)
	assert.Equal(t, "a@x.com", post.AuthorEmail)

	fetched, err := store.GetPostById(ctx, post.Id, appDb.VisibilityPending)
	require.NoError(t, err)
	assert.Equal(t, "Hello", fetched.Title)
	assert.Nil(t, fetched.Content)

	_, err = store.GetPostById(ctx, post.Id, appDb.VisibilityPublic)
	assert.ErrorIs(t, err, appDb.ErrNotFound)

	_, err = store.CreatePost(ctx, &appDb.CreatePost{Id: post.Id, Title: "dup", AuthorEmail: "a@x.com"})
	assert.ErrorIs(t, err, appDb.ErrConflict)
}

func TestVisibilityPartitionsListings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	pending := createPost(t, store, "pending")
	approved := createPost(t, store, "approved")
	require.NoError(t, store.SetPublic(ctx, approved.Id))

	public, err := store.GetPosts(ctx, &appDb.PostsListQuery{Visibility: appDb.VisibilityPublic})
	require.NoError(t, err)
	queue, err := store.GetPosts(ctx, &appDb.PostsListQuery{Visibility: appDb.VisibilityPending})
	require.NoError(t, err)

	require.Len(t, public, 1)
	require.Len(t, queue, 1)
	assert.Equal(t, approved.Id, public[0].Id)
	assert.True(t, public[0].IsPublic)
	assert.Equal(t, pending.Id, queue[0].Id)
	assert.False(t, queue[0].IsPublic)

	// approving twice keeps a single public row
	require.NoError(t, store.SetPublic(ctx, approved.Id))
	all, err := store.GetPosts(ctx, &appDb.PostsListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetPostsOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	first := createPost(t, store, "first")
	second := createPost(t, store, "second")
	_, err := store.CreatePost(ctx, &appDb.CreatePost{
		Id: uuid.NewString(), Title: "other", Description: "d", MainContent: "m", AuthorEmail: "b@x.com",
	})
	require.NoError(t, err)

	mine, err := store.GetPosts(ctx, &appDb.PostsListQuery{AuthorEmail: "a@X.com"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.Id, mine[0].Id)
	assert.Equal(t, first.Id, mine[1].Id)

	limited, err := store.GetPosts(ctx, &appDb.PostsListQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	empty, err := store.GetPosts(ctx, &appDb.PostsListQuery{AuthorEmail: "nobody@x.com"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetPostsPagesAfterLastPost(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	var created []*model.Post
	for i := 0; i < 5; i++ {
		created = append(created, createPost(t, store, fmt.Sprint("post ", i)))
	}

	page, err := store.GetPosts(ctx, &appDb.PostsListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, created[4].Id, page[0].Id)

	var seen []string
	for len(page) > 0 {
		for _, post := range page {
			seen = append(seen, post.Id)
		}
		last := page[len(page)-1]
		page, err = store.GetPosts(ctx, &appDb.PostsListQuery{From: &last.CreatedAt, LastId: last.Id, Limit: 2})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{created[4].Id, created[3].Id, created[2].Id, created[1].Id, created[0].Id}, seen)
}

func TestUpdateAndDeletePost(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	post := createPost(t, store, "Hello")

	url, mime := "https://store/public/x.png", "image/png"
	require.NoError(t, store.UpdatePost(ctx, post.Id, &appDb.UpdatePost{
		Title:       "Hello again",
		Description: "World",
		MainContent: "more text",
		Content:     &url,
		ContentType: &mime,
	}))
	updated, err := store.GetPostById(ctx, post.Id, appDb.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.Equal(t, "more text", updated.MainContent)
	require.NotNil(t, updated.Content)
	assert.Equal(t, url, *updated.Content)
	assert.Equal(t, mime, *updated.ContentType)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	require.NoError(t, store.DeletePost(ctx, post.Id))
	_, err = store.GetPostById(ctx, post.Id, appDb.VisibilityAny)
	assert.ErrorIs(t, err, appDb.ErrNotFound)

	assert.ErrorIs(t, store.DeletePost(ctx, post.Id), appDb.ErrNotFound)
	assert.ErrorIs(t, store.SetPublic(ctx, post.Id), appDb.ErrNotFound)
	assert.ErrorIs(t, store.UpdatePost(ctx, post.Id, &appDb.UpdatePost{}), appDb.ErrNotFound)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing, err := store.GetProfile(ctx, "uid-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.CreateProfile(ctx, &model.Profile{UserId: "uid-1", Email: "A@x.com"}))
	profile, err := store.GetProfile(ctx, "uid-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "a@x.com", profile.Email)
	assert.Equal(t, model.RoleUser, profile.Role)

	err = store.CreateProfile(ctx, &model.Profile{UserId: "uid-1", Email: "a@x.com"})
	assert.ErrorIs(t, err, appDb.ErrConflict)
	err = store.CreateProfile(ctx, &model.Profile{UserId: "uid-2", Email: "a@x.com"})
	assert.ErrorIs(t, err, appDb.ErrConflict)

	// the store stays usable after a rejected insert
	again, err := store.GetProfile(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, profile, again)

	byEmail, err := store.GetProfileByEmail(ctx, " A@X.com")
	require.NoError(t, err)
	assert.Equal(t, profile, byEmail)
	none, err := store.GetProfileByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestProfileRoleAndRelink(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateProfile(ctx, &model.Profile{UserId: "uid-1", Email: "a@x.com"}))
	require.NoError(t, store.CreateProfile(ctx, &model.Profile{UserId: "uid-2", Email: "b@x.com"}))

	require.NoError(t, store.SetRole(ctx, "A@x.com", model.RoleAdmin))
	assert.ErrorIs(t, store.SetRole(ctx, "c@x.com", model.RoleAdmin), appDb.ErrNotFound)

	require.NoError(t, store.RelinkProfile(ctx, "a@x.com", "uid-3"))
	assert.ErrorIs(t, store.RelinkProfile(ctx, "a@x.com", "uid-2"), appDb.ErrConflict)

	old, err := store.GetProfile(ctx, "uid-1")
	require.NoError(t, err)
	assert.Nil(t, old)
	moved, err := store.GetProfile(ctx, "uid-3")
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, model.RoleAdmin, moved.Role)
}

func TestFileDatabaseSurvivesConflicts(t *testing.T) {
	ctx := context.Background()
	store, err := GetDatabase(ctx, config.DBProperties{
		Adapter:      config.DbAdapterSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "posts.db"),
		EnsureSchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.CreateProfile(ctx, &model.Profile{UserId: "uid-1", Email: "a@x.com"}))
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, store.CreateProfile(ctx, &model.Profile{UserId: "uid-1", Email: "a@x.com"}), appDb.ErrConflict)
	}

	done := make(chan error, 1)
	go func() {
		_, err := store.GetProfile(ctx, "uid-1")
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("query blocked after a rejected insert")
	}
}

func TestCredentialsAndSessions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CreateCredential(ctx, &appDb.Credential{Email: "A@x.com", UserId: "uid-1", PasswordHash: "hash"}))
	assert.ErrorIs(t, store.CreateCredential(ctx, &appDb.Credential{Email: "a@x.com", UserId: "uid-2", PasswordHash: "hash"}), appDb.ErrConflict)

	cred, err := store.GetCredential(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "uid-1", cred.UserId)

	none, err := store.GetCredential(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, none)

	session := &appDb.Session{Id: uuid.NewString(), UserId: "uid-1", Email: "a@x.com", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, store.CreateSession(ctx, session))
	fetched, err := store.GetSession(ctx, session.Id)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "uid-1", fetched.UserId)

	require.NoError(t, store.DeleteSession(ctx, session.Id))
	gone, err := store.GetSession(ctx, session.Id)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
