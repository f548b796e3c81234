package app

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/navbryce/next-post-be/services"
	"github.com/navbryce/next-post-be/util"
	"github.com/sirupsen/logrus"
)

const MaxMainContentTokens = 1500

type SubmitInput struct {
	Title       string
	Description string
	MainContent string
	// AuthorEmail is optional. When present it must match the caller.
	AuthorEmail string
	Asset       *model.Asset
}

type EditInput struct {
	Title       string
	Description string
	MainContent string
	Asset       *model.Asset
}

// Lifecycle moves posts between pending and public. Asset and row writes are
// not transactional; the ordering below keeps a row from pointing at an asset
// that was never stored.
type Lifecycle struct {
	posts  appDb.PostDatabase
	assets services.AssetStore
	log    logrus.FieldLogger
	newId  func() string
}

func NewLifecycle(posts appDb.PostDatabase, assets services.AssetStore, log logrus.FieldLogger) *Lifecycle {
	return &Lifecycle{
		posts:  posts,
		assets: assets,
		log:    log,
		newId:  uuid.NewString,
	}
}

func (l *Lifecycle) Submit(ctx context.Context, caller *model.Caller, in *SubmitInput) (*model.Post, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if in.AuthorEmail != "" && model.NormalizeEmail(in.AuthorEmail) != model.NormalizeEmail(caller.Email) {
		return nil, forbiddenErr("author email does not match the signed in user")
	}
	fields, err := cleanFields(in.Title, in.Description, in.MainContent)
	if err != nil {
		return nil, err
	}
	contentType, err := assetContentType(in.Asset)
	if err != nil {
		return nil, err
	}

	id := l.newId()
	req := &appDb.CreatePost{
		Id:          id,
		Title:       fields.title,
		Description: fields.description,
		MainContent: fields.mainContent,
		AuthorEmail: caller.Email,
	}
	var assetPath string
	if in.Asset != nil {
		assetPath = services.AssetPath(id, in.Asset.FileName, contentType)
		url, err := l.upload(ctx, id, assetPath, in.Asset, contentType)
		if err != nil {
			return nil, err
		}
		req.Content = &url
		req.ContentType = &contentType
	}

	post, err := l.posts.CreatePost(ctx, req)
	if err != nil {
		l.log.WithError(err).WithField("post_id", id).Error("failed to create post")
		if assetPath != "" {
			l.removePath(ctx, id, assetPath)
		}
		return nil, upstreamErr("could not save post", err)
	}
	l.log.WithFields(logrus.Fields{"post_id": id, "user_id": caller.UserId}).Info("post submitted")
	return post, nil
}

// Approve publishes a pending post. Approving a public post changes nothing.
func (l *Lifecycle) Approve(ctx context.Context, caller *model.Caller, id string) (*model.Post, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	post, err := l.getPost(ctx, id, appDb.VisibilityAny)
	if err != nil {
		return nil, err
	}
	if post.IsPublic {
		return post, nil
	}
	if err := l.posts.SetPublic(ctx, id); err != nil {
		return nil, l.dbErr(err, id, "could not approve post")
	}
	l.log.WithFields(logrus.Fields{"post_id": id, "user_id": caller.UserId}).Info("post approved")
	return l.getPost(ctx, id, appDb.VisibilityAny)
}

// Decline rejects a pending post, removing its asset before the row.
func (l *Lifecycle) Decline(ctx context.Context, caller *model.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	post, err := l.getPost(ctx, id, appDb.VisibilityAny)
	if err != nil {
		return err
	}
	if post.IsPublic {
		return &Error{Kind: KindInvalidState, Message: "only pending posts can be declined"}
	}
	l.removeAsset(ctx, post)
	if err := l.posts.DeletePost(ctx, id); err != nil {
		return l.dbErr(err, id, "could not decline post")
	}
	l.log.WithFields(logrus.Fields{"post_id": id, "user_id": caller.UserId}).Info("post declined")
	return nil
}

// Edit rewrites an owner's public post. Without a new asset the stored
// content is kept.
func (l *Lifecycle) Edit(ctx context.Context, caller *model.Caller, id string, in *EditInput) (*model.Post, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	post, err := l.getPost(ctx, id, appDb.VisibilityPublic)
	if err != nil {
		return nil, err
	}
	if !IsOwner(post, caller) {
		return nil, forbiddenErr("only the author can edit this post")
	}
	fields, err := cleanFields(in.Title, in.Description, in.MainContent)
	if err != nil {
		return nil, err
	}
	contentType, err := assetContentType(in.Asset)
	if err != nil {
		return nil, err
	}

	update := &appDb.UpdatePost{
		Title:       fields.title,
		Description: fields.description,
		MainContent: fields.mainContent,
		Content:     post.Content,
		ContentType: post.ContentType,
	}
	if in.Asset != nil {
		l.removeAsset(ctx, post)
		url, err := l.upload(ctx, id, services.AssetPath(id, in.Asset.FileName, contentType), in.Asset, contentType)
		if err != nil {
			return nil, err
		}
		update.Content = &url
		update.ContentType = &contentType
	}

	if err := l.posts.UpdatePost(ctx, id, update); err != nil {
		return nil, l.dbErr(err, id, "could not update post")
	}
	l.log.WithFields(logrus.Fields{"post_id": id, "user_id": caller.UserId}).Info("post edited")
	return l.getPost(ctx, id, appDb.VisibilityAny)
}

// Delete is open to the author and to admins, in any state.
func (l *Lifecycle) Delete(ctx context.Context, caller *model.Caller, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	post, err := l.getPost(ctx, id, appDb.VisibilityAny)
	if err != nil {
		return err
	}
	if !post.CanDelete(caller) {
		return forbiddenErr("only the author or an admin can delete this post")
	}
	l.removeAsset(ctx, post)
	if err := l.posts.DeletePost(ctx, id); err != nil {
		return l.dbErr(err, id, "could not delete post")
	}
	l.log.WithFields(logrus.Fields{"post_id": id, "user_id": caller.UserId}).Info("post deleted")
	return nil
}

func (l *Lifecycle) GetPublic(ctx context.Context, id string) (*model.Post, error) {
	return l.getPost(ctx, id, appDb.VisibilityPublic)
}

func (l *Lifecycle) ListPublic(ctx context.Context, cursor *PostCursor, limit int) (*PostPage, error) {
	return l.list(ctx, cursor.apply(&appDb.PostsListQuery{Visibility: appDb.VisibilityPublic, Limit: limit}))
}

// ListMine returns the caller's posts whatever their state.
func (l *Lifecycle) ListMine(ctx context.Context, caller *model.Caller, cursor *PostCursor, limit int) (*PostPage, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return l.list(ctx, cursor.apply(&appDb.PostsListQuery{
		Visibility:  appDb.VisibilityAny,
		AuthorEmail: caller.Email,
		Limit:       limit,
	}))
}

// ListPending is the moderation queue.
func (l *Lifecycle) ListPending(ctx context.Context, caller *model.Caller, cursor *PostCursor, limit int) (*PostPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return l.list(ctx, cursor.apply(&appDb.PostsListQuery{Visibility: appDb.VisibilityPending, Limit: limit}))
}

// GetPending shows an admin a post awaiting review.
func (l *Lifecycle) GetPending(ctx context.Context, caller *model.Caller, id string) (*model.Post, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return l.getPost(ctx, id, appDb.VisibilityPending)
}

func (l *Lifecycle) list(ctx context.Context, query *appDb.PostsListQuery) (*PostPage, error) {
	posts, err := l.posts.GetPosts(ctx, query)
	if err != nil {
		l.log.WithError(err).Error("failed to list posts")
		return nil, upstreamErr("could not list posts", err)
	}
	return buildPage(posts, query.Limit), nil
}

func (l *Lifecycle) getPost(ctx context.Context, id string, visibility appDb.Visibility) (*model.Post, error) {
	post, err := l.posts.GetPostById(ctx, id, visibility)
	if err != nil {
		return nil, l.dbErr(err, id, "could not load post")
	}
	return post, nil
}

func (l *Lifecycle) dbErr(err error, id, message string) error {
	if errors.Is(err, appDb.ErrNotFound) {
		return notFoundErr(id)
	}
	l.log.WithError(err).WithField("post_id", id).Error(message)
	return upstreamErr(message, err)
}

func (l *Lifecycle) upload(ctx context.Context, id, path string, asset *model.Asset, contentType string) (string, error) {
	url, err := l.assets.Upload(ctx, path, bytes.NewReader(asset.Data), int64(len(asset.Data)), contentType)
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{"post_id": id, "asset_path": path}).Error("asset upload failed")
		return "", upstreamErr("could not store the attached file", err)
	}
	return url, nil
}

// removeAsset never fails the caller; a leaked object is preferred over a
// row that cannot be removed.
func (l *Lifecycle) removeAsset(ctx context.Context, post *model.Post) {
	if !post.HasAsset() {
		return
	}
	path, ok := l.assets.PathFromURL(*post.Content)
	if !ok {
		l.log.WithFields(logrus.Fields{"post_id": post.Id, "content": *post.Content}).
			Warn("cannot derive asset path from content url, leaving object in place")
		return
	}
	l.removePath(ctx, post.Id, path)
}

func (l *Lifecycle) removePath(ctx context.Context, id, path string) {
	fields := logrus.Fields{"post_id": id, "asset_path": path}
	if err := l.assets.Remove(ctx, path); err != nil {
		if errors.Is(err, services.ErrAssetNotFound) {
			l.log.WithFields(fields).Info("asset already gone")
			return
		}
		l.log.WithError(err).WithFields(fields).Warn("failed to remove asset")
	}
}

type postFields struct {
	title       string
	description string
	mainContent string
}

// cleanFields counts tokens on the submitted text, before sanitizing can
// shrink or grow it.
func cleanFields(title, description, mainContent string) (*postFields, error) {
	if n := CountTokens(mainContent); n > MaxMainContentTokens {
		return nil, validationErr("mainContent has %d tokens, at most %d allowed", n, MaxMainContentTokens)
	}
	fields := &postFields{
		title:       strings.TrimSpace(util.XSSSanitize(title)),
		description: strings.TrimSpace(util.XSSSanitize(description)),
		mainContent: strings.TrimSpace(util.XSSSanitize(mainContent)),
	}
	var missing []string
	if fields.title == "" {
		missing = append(missing, "title")
	}
	if fields.description == "" {
		missing = append(missing, "description")
	}
	if fields.mainContent == "" {
		missing = append(missing, "mainContent")
	}
	if len(missing) > 0 {
		return nil, validationErr("%s required", strings.Join(missing, ", "))
	}
	return fields, nil
}

// CountTokens counts whitespace separated tokens.
func CountTokens(s string) int {
	return len(strings.Fields(s))
}

func assetContentType(asset *model.Asset) (string, error) {
	if asset == nil {
		return "", nil
	}
	if len(asset.Data) == 0 {
		return "", validationErr("attached file is empty")
	}
	contentType := asset.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = services.DetectContentType(asset.Data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !services.IsMediaType(contentType) {
		return "", validationErr("attached file must be an image or video, got %s", contentType)
	}
	return contentType, nil
}

func requireCaller(caller *model.Caller) error {
	if caller == nil {
		return &Error{Kind: KindUnauthenticated, Message: "sign in required"}
	}
	return nil
}

func requireAdmin(caller *model.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !IsAdmin(caller) {
		return forbiddenErr("admin role required")
	}
	return nil
}
