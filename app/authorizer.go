package app

import (
	"context"
	"errors"

	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/navbryce/next-post-be/services"
	"github.com/sirupsen/logrus"
)

// Authorizer turns a session token into a Caller. Role always comes from the
// stored profile, never from the request.
type Authorizer struct {
	identity    services.IdentityProvider
	profiles    appDb.ProfileDatabase
	adminEmails map[string]struct{}
	log         logrus.FieldLogger
}

func NewAuthorizer(identity services.IdentityProvider, profiles appDb.ProfileDatabase, adminEmails []string, log logrus.FieldLogger) *Authorizer {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = model.NormalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Authorizer{
		identity:    identity,
		profiles:    profiles,
		adminEmails: admins,
		log:         log,
	}
}

func (a *Authorizer) ResolveCaller(ctx context.Context, token string) (*model.Caller, error) {
	if token == "" {
		return nil, &Error{Kind: KindUnauthenticated, Message: "no session token"}
	}
	identity, err := a.identity.Session(ctx, token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSession) {
			return nil, &Error{Kind: KindUnauthenticated, Message: "invalid session", Err: err}
		}
		a.log.WithError(err).Error("identity provider failed to verify session")
		return nil, upstreamErr("could not verify session", err)
	}

	profile, err := a.profileFor(ctx, identity)
	if err != nil {
		var appErr *Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		a.log.WithError(err).WithField("user_id", identity.UserId).Error("failed to load profile")
		return nil, upstreamErr("could not load profile", err)
	}
	return &model.Caller{
		UserId: identity.UserId,
		Email:  identity.Email,
		Role:   profile.Role,
		Token:  token,
	}, nil
}

// Register stores the profile of a freshly signed up identity. Sign up never
// grants the admin role.
func (a *Authorizer) Register(ctx context.Context, identity *services.Identity) error {
	err := a.profiles.CreateProfile(ctx, &model.Profile{
		UserId: identity.UserId,
		Email:  identity.Email,
		Role:   model.RoleUser,
	})
	if err != nil && !errors.Is(err, appDb.ErrConflict) {
		a.log.WithError(err).WithField("user_id", identity.UserId).Error("failed to create profile at sign up")
		return upstreamErr("could not create profile", err)
	}
	return nil
}

// profileFor creates the profile on first sight of an identity.
func (a *Authorizer) profileFor(ctx context.Context, identity *services.Identity) (*model.Profile, error) {
	profile, err := a.profiles.GetProfile(ctx, identity.UserId)
	if err != nil || profile != nil {
		return profile, err
	}
	profile = &model.Profile{
		UserId: identity.UserId,
		Email:  identity.Email,
		Role:   a.initialRole(identity),
	}
	err = a.profiles.CreateProfile(ctx, profile)
	if err == nil {
		a.log.WithFields(logrus.Fields{"user_id": profile.UserId, "role": profile.Role}).Info("created profile")
		return profile, nil
	}
	if !errors.Is(err, appDb.ErrConflict) {
		return nil, err
	}
	// either a concurrent request created it or the email belongs to an
	// older subject
	profile, err = a.profiles.GetProfile(ctx, identity.UserId)
	if err != nil || profile != nil {
		return profile, err
	}
	return a.relink(ctx, identity)
}

// initialRole seeds admins only for addresses the identity provider has
// verified.
func (a *Authorizer) initialRole(identity *services.Identity) model.Role {
	if !identity.EmailVerified {
		return model.RoleUser
	}
	if _, ok := a.adminEmails[model.NormalizeEmail(identity.Email)]; ok {
		return model.RoleAdmin
	}
	return model.RoleUser
}

// relink hands an existing profile to a new subject for the same verified
// email, e.g. a recreated firebase user.
func (a *Authorizer) relink(ctx context.Context, identity *services.Identity) (*model.Profile, error) {
	if !identity.EmailVerified {
		return nil, forbiddenErr("email is linked to another account")
	}
	if err := a.profiles.RelinkProfile(ctx, identity.Email, identity.UserId); err != nil {
		return nil, err
	}
	profile, err := a.profiles.GetProfile(ctx, identity.UserId)
	if err == nil && profile == nil {
		err = errors.New("profile missing after relink")
	}
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"user_id": profile.UserId, "role": profile.Role}).Info("relinked profile to new user id")
	return profile, nil
}

func IsOwner(post *model.Post, caller *model.Caller) bool {
	return caller != nil && post.IsOwnedBy(caller.Email)
}

func IsAdmin(caller *model.Caller) bool {
	return caller.IsAdmin()
}
