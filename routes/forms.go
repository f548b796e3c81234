package routes

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navbryce/next-post-be/model"
	"github.com/navbryce/next-post-be/util"
)

const contentField = "content"

type postForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	MainContent string `form:"mainContent"`
	AuthorEmail string `form:"user_email"`
}

func bindPostForm(c *gin.Context) (*postForm, *model.Asset, *util.HTTPError) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, formErr(err)
	}
	asset, httpErr := readAsset(c)
	if httpErr != nil {
		return nil, nil, httpErr
	}
	return &form, asset, nil
}

// readAsset returns nil when the request carries no file.
func readAsset(c *gin.Context) (*model.Asset, *util.HTTPError) {
	header, err := c.FormFile(contentField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, formErr(err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, formErr(err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formErr(err)
	}
	return &model.Asset{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

func formErr(err error) *util.HTTPError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &util.HTTPError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("upload exceeds %d bytes", maxBytesErr.Limit),
		}
	}
	return util.BuildJSONBindHTTPErr(err)
}

// LimitBody caps request bodies before multipart parsing starts.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
