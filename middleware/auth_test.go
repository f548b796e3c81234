package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/model"
	"github.com/stretchr/testify/assert"
)

type stubResolver map[string]*model.Caller

func (s stubResolver) ResolveCaller(_ context.Context, token string) (*model.Caller, error) {
	if token == "broken" {
		return nil, &app.Error{Kind: app.KindUpstream, Message: "down", Err: errors.New("dial tcp")}
	}
	caller, ok := s[token]
	if !ok {
		return nil, &app.Error{Kind: app.KindUnauthenticated, Message: "invalid session"}
	}
	return caller, nil
}

var resolver = stubResolver{
	"user-token":  {UserId: "u1", Email: "user@example.com", Role: model.RoleUser},
	"admin-token": {UserId: "u2", Email: "admin@example.com", Role: model.RoleAdmin},
}

func newRouter(config *AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Auth(resolver, config), func(c *gin.Context) {
		caller := GetCaller(c)
		if caller == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, caller.Email)
	})
	return r
}

func do(r *gin.Engine, setup func(req *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(req *http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(&AuthConfig{})

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
		body   string
	}{
		{"no header", nil, http.StatusUnauthorized, "no authorization header"},
		{"malformed", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized, "incorrectly formatted"},
		{"invalid", bearer("nope"), http.StatusUnauthorized, "invalid token"},
		{"upstream", bearer("broken"), http.StatusInternalServerError, "could not verify session"},
		{"bearer", bearer("user-token"), http.StatusOK, "user@example.com"},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "admin-token"})
		}, http.StatusOK, "admin@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.setup)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuthOptional(t *testing.T) {
	r := newRouter(&AuthConfig{SessionNotRequired: true})

	assert.Equal(t, "anonymous", do(r, nil).Body.String())
	assert.Equal(t, "anonymous", do(r, bearer("nope")).Body.String())
	assert.Equal(t, "user@example.com", do(r, bearer("user-token")).Body.String())
}

func TestAuthAdminRequired(t *testing.T) {
	r := newRouter(&AuthConfig{AdminRequired: true})

	assert.Equal(t, http.StatusForbidden, do(r, bearer("user-token")).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer("admin-token")).Code)
}
