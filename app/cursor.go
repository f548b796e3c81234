package app

import (
	"encoding/base64"
	"encoding/json"
	"time"

	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
)

// PostCursor marks where the previous page of a newest-first listing ended.
type PostCursor struct {
	LastDate time.Time `json:"lastDate"`
	LastId   string    `json:"lastId"`
}

// PostPage is one page of a listing. Next is empty on the last page.
type PostPage struct {
	Posts []*model.Post `json:"posts"`
	Next  string        `json:"next,omitempty"`
}

// ParseCursor decodes the opaque token handed out as PostPage.Next. An empty
// token starts from the newest post.
func ParseCursor(raw string) (*PostCursor, error) {
	if raw == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, validationErr("malformed cursor")
	}
	var cursor PostCursor
	if err := json.Unmarshal(decoded, &cursor); err != nil || cursor.LastId == "" || cursor.LastDate.IsZero() {
		return nil, validationErr("malformed cursor")
	}
	return &cursor, nil
}

func (pc *PostCursor) String() string {
	encoded, _ := json.Marshal(pc)
	return base64.RawURLEncoding.EncodeToString(encoded)
}

func (pc *PostCursor) apply(query *appDb.PostsListQuery) *appDb.PostsListQuery {
	if pc != nil {
		query.From = &pc.LastDate
		query.LastId = pc.LastId
	}
	return query
}

// buildPage only hands out a cursor when the page came back full.
func buildPage(posts []*model.Post, limit int) *PostPage {
	page := &PostPage{Posts: posts}
	if len(posts) > 0 && len(posts) >= appDb.ClampLimit(limit) {
		last := posts[len(posts)-1]
		page.Next = (&PostCursor{LastDate: last.CreatedAt, LastId: last.Id}).String()
	}
	return page
}
