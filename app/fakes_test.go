package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/navbryce/next-post-be/config"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/db/sqlstore"
	"github.com/navbryce/next-post-be/model"
	"github.com/navbryce/next-post-be/services"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const assetBase = "https://store.test/uploads"

// memAssets is an AssetStore kept in memory.
type memAssets struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	removeErr error
	uploads   int
	removals  []string
}

func newMemAssets() *memAssets {
	return &memAssets{objects: map[string][]byte{}}
}

func (m *memAssets) Upload(_ context.Context, path string, object io.Reader, _ int64, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	data, err := io.ReadAll(object)
	if err != nil {
		return "", err
	}
	m.objects[path] = data
	return assetBase + "/" + path, nil
}

func (m *memAssets) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removals = append(m.removals, path)
	if m.removeErr != nil {
		return m.removeErr
	}
	if _, ok := m.objects[path]; !ok {
		return services.ErrAssetNotFound
	}
	delete(m.objects, path)
	return nil
}

func (m *memAssets) PathFromURL(publicURL string) (string, bool) {
	return strings.CutPrefix(publicURL, assetBase+"/")
}

func (m *memAssets) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

// failingCreate breaks CreatePost on an otherwise working store.
type failingCreate struct {
	appDb.PostDatabase
}

func (failingCreate) CreatePost(context.Context, *appDb.CreatePost) (*model.Post, error) {
	return nil, errors.New("connection refused")
}

// MockPosts fails the test on any call that was not set up.
type MockPosts struct {
	mock.Mock
}

func (m *MockPosts) CreatePost(ctx context.Context, req *appDb.CreatePost) (*model.Post, error) {
	args := m.Called(ctx, req)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *MockPosts) GetPostById(ctx context.Context, id string, visibility appDb.Visibility) (*model.Post, error) {
	args := m.Called(ctx, id, visibility)
	post, _ := args.Get(0).(*model.Post)
	return post, args.Error(1)
}

func (m *MockPosts) GetPosts(ctx context.Context, query *appDb.PostsListQuery) ([]*model.Post, error) {
	args := m.Called(ctx, query)
	posts, _ := args.Get(0).([]*model.Post)
	return posts, args.Error(1)
}

func (m *MockPosts) UpdatePost(ctx context.Context, id string, req *appDb.UpdatePost) error {
	return m.Called(ctx, id, req).Error(0)
}

func (m *MockPosts) SetPublic(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPosts) DeletePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) Session(ctx context.Context, token string) (*services.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*services.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentity) SignUp(ctx context.Context, email, password string) (*services.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*services.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentity) SignIn(ctx context.Context, email, password string) (*services.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*services.Session)
	return session, args.Error(1)
}

func (m *MockIdentity) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func newTestStore(t *testing.T) *sqlstore.SQLStore {
	t.Helper()
	store, err := sqlstore.GetDatabase(context.Background(), config.DBProperties{
		Adapter:      config.DbAdapterSQLite,
		SQLitePath:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		EnsureSchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	store     *sqlstore.SQLStore
	assets    *memAssets
	lifecycle *Lifecycle
	logs      *test.Hook
}

func newFixture(t *testing.T) *fixture {
	store := newTestStore(t)
	assets := newMemAssets()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return &fixture{
		store:     store,
		assets:    assets,
		lifecycle: NewLifecycle(store, assets, logger),
		logs:      hook,
	}
}

var (
	alice = &model.Caller{UserId: "u-alice", Email: "alice@example.com", Role: model.RoleUser}
	bob   = &model.Caller{UserId: "u-bob", Email: "bob@example.com", Role: model.RoleUser}
	admin = &model.Caller{UserId: "u-admin", Email: "admin@example.com", Role: model.RoleAdmin}
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func pngAsset() *model.Asset {
	return &model.Asset{FileName: "photo.png", ContentType: "image/png", Data: pngBytes}
}

func validInput() *SubmitInput {
	return &SubmitInput{
		Title:       "Hello",
		Description: "World",
		MainContent: "some body text",
	}
}
