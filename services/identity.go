package services

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnsupported        = errors.New("operation not supported by identity provider")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrEmailTaken         = errors.New("email already registered")
)

// Identity is what a verified session token proves about its bearer.
// EmailVerified is only true when the provider itself vouches for the
// address.
type Identity struct {
	UserId        string `json:"userId"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"-"`
}

// Session is an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"identity"`
}

type IdentityProvider interface {
	Session(ctx context.Context, token string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
}
