package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrAssetNotFound = errors.New("asset not found")

// AssetStore is the object storage contract used by the post lifecycle.
// Upload overwrites whatever is stored at the same path.
type AssetStore interface {
	Upload(ctx context.Context, path string, object io.Reader, size int64, contentType string) (publicURL string, err error)
	Remove(ctx context.Context, path string) error
	PathFromURL(publicURL string) (string, bool)
}

const AssetPrefix = "public"

// AssetPath derives the storage path of a post's attachment.
func AssetPath(postId, fileName, contentType string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		if mime := mimetype.Lookup(contentType); mime != nil {
			ext = mime.Extension()
		}
	}
	return fmt.Sprintf("%s/%s%s", AssetPrefix, postId, ext)
}

// DetectContentType sniffs the payload, ignoring client supplied headers.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsMediaType accepts the types clients can render inline.
func IsMediaType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// pathFromURL strips base (scheme+host+prefix) from a public URL. It falls
// back to the "/public/" marker for URLs minted under another host.
func pathFromURL(base, publicURL string) (string, bool) {
	if publicURL == "" {
		return "", false
	}
	if base != "" && strings.HasPrefix(publicURL, base) {
		p := strings.TrimPrefix(strings.TrimPrefix(publicURL, base), "/")
		return unescape(p)
	}
	marker := "/" + AssetPrefix + "/"
	idx := strings.LastIndex(publicURL, marker)
	if idx < 0 {
		return "", false
	}
	return unescape(publicURL[idx+1:])
}

func unescape(p string) (string, bool) {
	if q := strings.IndexAny(p, "?#"); q >= 0 {
		p = p[:q]
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil || unescaped == "" || strings.HasSuffix(unescaped, "/") {
		return "", false
	}
	return unescaped, true
}
