package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/middleware"
	"github.com/navbryce/next-post-be/services"
	"github.com/navbryce/next-post-be/util"
	"github.com/sirupsen/logrus"
)

// ProfileRegistrar stores the profile of a new account.
type ProfileRegistrar interface {
	Register(ctx context.Context, identity *services.Identity) error
}

type authRoutes struct {
	identity     services.IdentityProvider
	profiles     ProfileRegistrar
	secureCookie bool
	log          logrus.FieldLogger
}

func AddAuthRoutes(group *gin.RouterGroup, identity services.IdentityProvider, profiles ProfileRegistrar, resolver middleware.CallerResolver, secureCookie bool, log logrus.FieldLogger) {
	routes := authRoutes{identity, profiles, secureCookie, log}
	auth := group.Group("/auth")
	auth.POST("/signup", util.HandlerWrapper(routes.signUp, &util.HandlerOpts{SuccessStatus: http.StatusCreated}))
	auth.POST("/signin", util.HandlerWrapper(routes.signIn, &util.HandlerOpts{}))

	session := auth.Group("", middleware.Auth(resolver, &middleware.AuthConfig{}))
	session.POST("/signout", util.HandlerWrapper(routes.signOut, &util.HandlerOpts{}))
	session.GET("/session", util.HandlerWrapper(routes.getSession, &util.HandlerOpts{}))
}

type credentialsReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ar *authRoutes) signUp(c *gin.Context) (interface{}, *util.HTTPError) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, util.BuildJSONBindHTTPErr(err)
	}
	identity, err := ar.identity.SignUp(c, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return nil, &util.HTTPError{Status: http.StatusBadRequest, Message: err.Error()}
		}
		return nil, ar.identityHTTPErr(err)
	}
	if err := ar.profiles.Register(c, identity); err != nil {
		return nil, buildAppHTTPErr(err)
	}
	return identity, nil
}

func (ar *authRoutes) signIn(c *gin.Context) (interface{}, *util.HTTPError) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, util.BuildJSONBindHTTPErr(err)
	}
	session, err := ar.identity.SignIn(c, req.Email, req.Password)
	if err != nil {
		return nil, ar.identityHTTPErr(err)
	}
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session.Token, maxAge, "/", "", ar.secureCookie, true)
	return session, nil
}

func (ar *authRoutes) signOut(c *gin.Context) (interface{}, *util.HTTPError) {
	if err := ar.identity.SignOut(c, middleware.GetToken(c)); err != nil {
		return nil, ar.identityHTTPErr(err)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ar.secureCookie, true)
	return nil, nil
}

// getSession tells clients who is signed in and whether to show admin links.
func (ar *authRoutes) getSession(c *gin.Context) (interface{}, *util.HTTPError) {
	caller := middleware.GetCaller(c)
	return gin.H{
		"email":  caller.Email,
		"role":   caller.Role,
		"avatar": util.Avatar(caller.Email),
	}, nil
}

func (ar *authRoutes) identityHTTPErr(err error) *util.HTTPError {
	switch {
	case errors.Is(err, services.ErrUnsupported):
		return &util.HTTPError{Status: http.StatusNotImplemented, Message: "not supported by the configured identity provider"}
	case errors.Is(err, services.ErrEmailTaken):
		return &util.HTTPError{Status: http.StatusConflict, Message: "email already registered"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return &util.HTTPError{Status: http.StatusUnauthorized, Message: err.Error()}
	case errors.Is(err, services.ErrInvalidSession):
		return &util.HTTPError{Status: http.StatusUnauthorized, Message: "invalid token"}
	}
	ar.log.WithError(err).Error("identity provider error")
	return &util.HTTPError{Status: http.StatusInternalServerError, Message: "identity provider error", Cause: err}
}
