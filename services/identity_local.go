package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
)

// LocalIdentity keeps credentials in the application database and issues
// HS256 session tokens whose jti is tracked in the sessions table.
type LocalIdentity struct {
	store  appDb.CredentialDatabase
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type localClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewLocalIdentity(store appDb.CredentialDatabase, secret string, ttl time.Duration) *LocalIdentity {
	return &LocalIdentity{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (li *LocalIdentity) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d to %d characters", ErrInvalidCredentials, minPasswordLen, maxPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	cred := &appDb.Credential{
		Email:        email,
		UserId:       uuid.NewString(),
		PasswordHash: string(hashed),
	}
	if err := li.store.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, appDb.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &Identity{UserId: cred.UserId, Email: email}, nil
}

func (li *LocalIdentity) SignIn(ctx context.Context, email, password string) (*Session, error) {
	cred, err := li.store.GetCredential(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	issuedAt := li.now()
	expiresAt := issuedAt.Add(li.ttl)
	sessionId := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, localClaims{
		Email: cred.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionId,
			Subject:   cred.UserId,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(li.secret)
	if err != nil {
		return nil, err
	}
	if err := li.store.CreateSession(ctx, &appDb.Session{
		Id:        sessionId,
		UserId:    cred.UserId,
		Email:     cred.Email,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}
	return &Session{
		Token:     signed,
		ExpiresAt: expiresAt,
		Identity:  Identity{UserId: cred.UserId, Email: cred.Email},
	}, nil
}

func (li *LocalIdentity) Session(ctx context.Context, token string) (*Identity, error) {
	claims, err := li.parse(token)
	if err != nil {
		return nil, err
	}
	session, err := li.store.GetSession(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserId != claims.Subject || !li.now().Before(session.ExpiresAt) {
		return nil, ErrInvalidSession
	}
	return &Identity{UserId: session.UserId, Email: session.Email}, nil
}

func (li *LocalIdentity) SignOut(ctx context.Context, token string) error {
	claims, err := li.parse(token)
	if err != nil {
		return err
	}
	return li.store.DeleteSession(ctx, claims.ID)
}

func (li *LocalIdentity) parse(token string) (*localClaims, error) {
	claims := &localClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return li.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(li.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
