package util

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// ParseId accepts post ids, which are UUIDs.
func ParseId(val string) (string, *HTTPError) {
	id, err := uuid.Parse(val)
	if err != nil {
		httpErr := MalformedIdHTTPErr
		return "", &httpErr
	}
	return id.String(), nil
}

// ParseLimit reads an optional page size. Zero means the listing default.
func ParseLimit(val string) (int, *HTTPError) {
	if val == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit < 0 {
		return 0, &HTTPError{Status: http.StatusBadRequest, Message: "limit must be a non-negative integer"}
	}
	return limit, nil
}
