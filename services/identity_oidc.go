package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/navbryce/next-post-be/model"
	"golang.org/x/oauth2"
)

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type passwordGranter interface {
	PasswordCredentialsToken(ctx context.Context, username, password string) (*oauth2.Token, error)
}

// OIDCIdentity accepts ID tokens issued by an external OpenID provider. Users
// are provisioned at the provider.
type OIDCIdentity struct {
	verifier idTokenVerifier
	oauth    passwordGranter
}

type oidcClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

func NewOIDCIdentity(ctx context.Context, conf OIDCConfig) (*OIDCIdentity, error) {
	provider, err := oidc.NewProvider(ctx, conf.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", conf.Issuer, err)
	}
	scopes := conf.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email"}
	}
	return &OIDCIdentity{
		verifier: provider.Verifier(&oidc.Config{ClientID: conf.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

func (oi *OIDCIdentity) Session(ctx context.Context, token string) (*Identity, error) {
	idToken, err := oi.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		return nil, fmt.Errorf("%w: no verified email", ErrInvalidSession)
	}
	return &Identity{
		UserId:        idToken.Subject,
		Email:         model.NormalizeEmail(claims.Email),
		EmailVerified: claims.EmailVerified != nil && *claims.EmailVerified,
	}, nil
}

func (oi *OIDCIdentity) SignUp(context.Context, string, string) (*Identity, error) {
	return nil, ErrUnsupported
}

// SignIn uses the resource owner password grant and hands back the ID token.
func (oi *OIDCIdentity) SignIn(ctx context.Context, email, password string) (*Session, error) {
	token, err := oi.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}
	identity, err := oi.Session(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	return &Session{Token: rawIDToken, ExpiresAt: token.Expiry, Identity: *identity}, nil
}

// SignOut is a no-op; ID tokens expire at the provider.
func (oi *OIDCIdentity) SignOut(context.Context, string) error {
	return nil
}
