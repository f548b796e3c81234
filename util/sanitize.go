package util

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var XSSPolicy = bluemonday.UGCPolicy()

const maxSanitizePasses = 4

// XSSSanitize strips unsafe HTML and returns the unescaped text. Unescaping
// can surface markup that was entity encoded, so the text is sanitized again
// until it stops changing.
func XSSSanitize(val string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(XSSPolicy.Sanitize(val))
		if next == val {
			return next
		}
		val = next
	}
	return XSSPolicy.Sanitize(val)
}
