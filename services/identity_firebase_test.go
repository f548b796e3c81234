package services

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFirebaseAuth struct {
	mock.Mock
}

func (m *MockFirebaseAuth) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	token, _ := args.Get(0).(*auth.Token)
	return token, args.Error(1)
}

func (m *MockFirebaseAuth) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	token, _ := args.Get(0).(*auth.Token)
	return token, args.Error(1)
}

func (m *MockFirebaseAuth) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*auth.UserRecord)
	return record, args.Error(1)
}

func (m *MockFirebaseAuth) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func TestFirebaseSession(t *testing.T) {
	ctx := context.Background()
	client := new(MockFirebaseAuth)
	identity := &FirebaseIdentity{client: client}

	client.On("VerifyIDTokenAndCheckRevoked", ctx, "verified").Return(&auth.Token{
		UID:    "uid-1",
		Claims: map[string]interface{}{"email": "Alice@Example.com", "email_verified": true},
	}, nil)
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "unverified").Return(&auth.Token{
		UID:    "uid-2",
		Claims: map[string]interface{}{"email": "bob@example.com"},
	}, nil)
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "no-email").Return(&auth.Token{
		UID:    "uid-3",
		Claims: map[string]interface{}{},
	}, nil)
	client.On("VerifyIDTokenAndCheckRevoked", ctx, "unreachable").
		Return(nil, errors.New("failed to get user: dial tcp: i/o timeout"))

	got, err := identity.Session(ctx, "verified")
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserId: "uid-1", Email: "alice@example.com", EmailVerified: true}, got)

	got, err = identity.Session(ctx, "unverified")
	require.NoError(t, err)
	assert.False(t, got.EmailVerified)

	_, err = identity.Session(ctx, "no-email")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = identity.Session(ctx, "unreachable")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}
