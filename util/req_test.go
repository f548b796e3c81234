package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", handler)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandlerWrapper(t *testing.T) {
	t.Run("data", func(t *testing.T) {
		w, body := serve(HandlerWrapper(func(c *gin.Context) (interface{}, *HTTPError) {
			return gin.H{"id": "p1"}, nil
		}, &HandlerOpts{SuccessStatus: http.StatusCreated}))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, map[string]interface{}{"id": "p1"}, body["data"])
	})

	t.Run("no data", func(t *testing.T) {
		w, body := serve(HandlerWrapper(func(c *gin.Context) (interface{}, *HTTPError) {
			return nil, nil
		}, &HandlerOpts{}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, body, "data")
	})

	t.Run("error hides cause", func(t *testing.T) {
		w, body := serve(HandlerWrapper(func(c *gin.Context) (interface{}, *HTTPError) {
			return nil, BuildDbHTTPErr(errors.New("dial tcp 10.0.0.1:3306"))
		}, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "database error", body["message"])
		assert.NotContains(t, w.Body.String(), "10.0.0.1")
	})
}

func TestParseId(t *testing.T) {
	id, httpErr := ParseId("6F9619FF-8B86-D011-B42D-00CF4FC964FF")
	require.Nil(t, httpErr)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00cf4fc964ff", id)

	_, httpErr = ParseId("42")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
}

func TestParseLimit(t *testing.T) {
	limit, httpErr := ParseLimit("")
	assert.Nil(t, httpErr)
	assert.Zero(t, limit)
	limit, httpErr = ParseLimit("20")
	assert.Nil(t, httpErr)
	assert.Equal(t, 20, limit)
	_, httpErr = ParseLimit("-1")
	assert.NotNil(t, httpErr)
}

func TestXSSSanitize(t *testing.T) {
	assert.Equal(t, "Hello", XSSSanitize(`<script>alert("x")</script>Hello`))
	assert.Equal(t, "Tom & Jerry", XSSSanitize("Tom & Jerry"))
	assert.Equal(t, "Hello", XSSSanitize(`&lt;script&gt;alert("x")&lt;/script&gt;Hello`))
	assert.Equal(t, "<b>bold</b>", XSSSanitize("&lt;b&gt;bold&lt;/b&gt;"))
	assert.NotContains(t, XSSSanitize(`&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;`), "<script")
}
