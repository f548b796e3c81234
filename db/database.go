package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/navbryce/next-post-be/model"
)

type Database interface {
	PostDatabase
	ProfileDatabase
	CredentialDatabase
	GetSQLDB() *sql.DB
	Close() error
}

type Visibility int

const (
	VisibilityAny Visibility = iota
	VisibilityPublic
	VisibilityPending
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type CreatePost struct {
	Id          string
	Title       string
	Description string
	MainContent string
	AuthorEmail string
	Content     *string
	ContentType *string
}

// UpdatePost carries the owner-editable columns. Content and ContentType are
// written together.
type UpdatePost struct {
	Title       string
	Description string
	MainContent string
	Content     *string
	ContentType *string
}

// PostsListQuery pages newest first. From and LastId, when set, continue
// after the last post of the previous page.
type PostsListQuery struct {
	Visibility  Visibility
	AuthorEmail string
	From        *time.Time
	LastId      string
	Limit       int
}

type PostDatabase interface {
	CreatePost(ctx context.Context, req *CreatePost) (*model.Post, error)
	GetPostById(ctx context.Context, id string, visibility Visibility) (*model.Post, error)
	GetPosts(ctx context.Context, query *PostsListQuery) ([]*model.Post, error)
	UpdatePost(ctx context.Context, id string, req *UpdatePost) error
	SetPublic(ctx context.Context, id string) error
	DeletePost(ctx context.Context, id string) error
}

type ProfileDatabase interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, userId string) (*model.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	RelinkProfile(ctx context.Context, email, userId string) error
	SetRole(ctx context.Context, email string, role model.Role) error
}

type Credential struct {
	Email        string `db:"email"`
	UserId       string `db:"user_id"`
	PasswordHash string `db:"password_hash"`
}

type Session struct {
	Id        string    `db:"id"`
	UserId    string    `db:"user_id"`
	Email     string    `db:"email"`
	ExpiresAt time.Time `db:"expires_at"`
}

// CredentialDatabase backs the self-hosted identity provider.
type CredentialDatabase interface {
	CreateCredential(ctx context.Context, cred *Credential) error
	GetCredential(ctx context.Context, email string) (*Credential, error)
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// ClampLimit applies the listing defaults.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
