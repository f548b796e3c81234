package routes

import (
	"errors"
	"net/http"

	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/util"
)

var appErrStatus = map[app.Kind]int{
	app.KindValidation:      http.StatusBadRequest,
	app.KindUnauthenticated: http.StatusUnauthorized,
	app.KindForbidden:       http.StatusForbidden,
	app.KindNotFound:        http.StatusNotFound,
	app.KindInvalidState:    http.StatusConflict,
	app.KindUpstream:        http.StatusInternalServerError,
}

// buildAppHTTPErr maps lifecycle errors onto statuses. Only the app.Error
// message reaches the client.
func buildAppHTTPErr(err error) *util.HTTPError {
	var appErr *app.Error
	if !errors.As(err, &appErr) {
		return &util.HTTPError{
			Status:  http.StatusInternalServerError,
			Message: "internal error",
			Cause:   err,
		}
	}
	status, ok := appErrStatus[appErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	httpErr := &util.HTTPError{Status: status, Message: appErr.Message}
	if status >= http.StatusInternalServerError {
		httpErr.Cause = err
	}
	return httpErr
}
