package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/model"
	"github.com/navbryce/next-post-be/util"
)

const (
	TOKEN_KEY  = "authToken"
	CALLER_KEY = "caller"

	// SessionCookie carries the token issued by /auth/signin for browser clients.
	SessionCookie = "next_post_session"
)

type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (*model.Caller, error)
}

type AuthConfig struct {
	SessionNotRequired bool
	AdminRequired      bool
}

func Auth(resolver CallerResolver, config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, httpErr := tokenFromRequest(c)
		if httpErr != nil {
			if config.SessionNotRequired {
				return
			}
			util.HandleHTTPErrorRes(c, httpErr)
			return
		}
		c.Set(TOKEN_KEY, token)

		caller, err := resolver.ResolveCaller(c, token)
		if err != nil {
			if app.IsKind(err, app.KindUpstream) {
				util.HandleHTTPErrorRes(c, &util.HTTPError{
					Status:  http.StatusInternalServerError,
					Message: "could not verify session",
					Cause:   err,
				})
				return
			}
			if config.SessionNotRequired {
				return
			}
			util.HandleHTTPErrorRes(c, &util.HTTPError{
				Status:  http.StatusUnauthorized,
				Message: "invalid token",
			})
			return
		}
		if config.AdminRequired && !caller.IsAdmin() {
			util.HandleHTTPErrorRes(c, &util.HTTPError{
				Status:  http.StatusForbidden,
				Message: "admin role required",
			})
			return
		}
		c.Set(CALLER_KEY, caller)
	}
}

func tokenFromRequest(c *gin.Context) (string, *util.HTTPError) {
	authorizationHeader := c.GetHeader("Authorization")
	if authorizationHeader == "" {
		if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
			return cookie, nil
		}
		return "", &util.HTTPError{
			Status:  http.StatusUnauthorized,
			Message: "no authorization header",
		}
	}
	if !strings.HasPrefix(authorizationHeader, "Bearer ") || len(authorizationHeader) < 8 {
		return "", &util.HTTPError{
			Status:  http.StatusUnauthorized,
			Message: "incorrectly formatted authorization header",
		}
	}
	return authorizationHeader[7:], nil
}

func GetToken(c *gin.Context) string {
	return c.GetString(TOKEN_KEY)
}

// GetCaller returns nil on routes where a session is optional and none was sent.
func GetCaller(c *gin.Context) *model.Caller {
	caller, ok := c.Get(CALLER_KEY)
	if !ok {
		return nil
	}
	return caller.(*model.Caller)
}
