package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/navbryce/next-post-be/model"
)

type firebaseAuthClient interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseIdentity verifies ID tokens minted by the firebase client SDK.
// Sign in happens client side, so SignIn is unsupported.
type FirebaseIdentity struct {
	client firebaseAuthClient
}

func NewFirebaseIdentity(ctx context.Context, app *firebase.App) (*FirebaseIdentity, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseIdentity{client: client}, nil
}

func (fi *FirebaseIdentity) Session(ctx context.Context, token string) (*Identity, error) {
	verified, err := fi.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, tokenErr(err)
	}
	email, _ := verified.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidSession)
	}
	emailVerified, _ := verified.Claims["email_verified"].(bool)
	return &Identity{
		UserId:        verified.UID,
		Email:         model.NormalizeEmail(email),
		EmailVerified: emailVerified,
	}, nil
}

// tokenErr keeps rejected tokens apart from failures to reach firebase.
func tokenErr(err error) error {
	if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) ||
		auth.IsIDTokenRevoked(err) || auth.IsUserDisabled(err) {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return fmt.Errorf("verify firebase token: %w", err)
}

func (fi *FirebaseIdentity) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(model.NormalizeEmail(email)).
		Password(password)
	record, err := fi.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &Identity{UserId: record.UID, Email: model.NormalizeEmail(record.Email)}, nil
}

func (fi *FirebaseIdentity) SignIn(context.Context, string, string) (*Session, error) {
	return nil, ErrUnsupported
}

func (fi *FirebaseIdentity) SignOut(ctx context.Context, token string) error {
	verified, err := fi.client.VerifyIDToken(ctx, token)
	if err != nil {
		return tokenErr(err)
	}
	return fi.client.RevokeRefreshTokens(ctx, verified.UID)
}
