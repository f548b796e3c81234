package model

import (
	"strings"
	"time"
)

type State string

const (
	StatePending State = "PENDING"
	StatePublic  State = "PUBLIC"
)

type Post struct {
	Id          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	MainContent string    `db:"main_content" json:"mainContent"`
	AuthorEmail string    `db:"email" json:"email"`
	Content     *string   `db:"content" json:"content"`
	ContentType *string   `db:"content_type" json:"contentType"`
	IsPublic    bool      `db:"is_public" json:"isPublic"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

func (p *Post) State() State {
	if p.IsPublic {
		return StatePublic
	}
	return StatePending
}

func (p *Post) HasAsset() bool {
	return p.Content != nil && *p.Content != ""
}

// IsOwnedBy compares emails the way the identity providers normalise them.
func (p *Post) IsOwnedBy(email string) bool {
	return email != "" && NormalizeEmail(p.AuthorEmail) == NormalizeEmail(email)
}

// CanDelete reports whether the caller may remove the post.
func (p *Post) CanDelete(caller *Caller) bool {
	return caller != nil && (caller.IsAdmin() || p.IsOwnedBy(caller.Email))
}

// IsRenderableMedia is false when the stored type is neither image nor video,
// so clients fall back to a placeholder.
func (p *Post) IsRenderableMedia() bool {
	if !p.HasAsset() || p.ContentType == nil {
		return false
	}
	return strings.HasPrefix(*p.ContentType, "image/") || strings.HasPrefix(*p.ContentType, "video/")
}

// Asset is an uploaded binary waiting to be stored.
type Asset struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
