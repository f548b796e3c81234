package controllers

import (
	"context"
	"strings"

	"github.com/navbryce/next-post-be/app"
	"github.com/navbryce/next-post-be/model"
	"github.com/sirupsen/logrus"
)

type Media string

const (
	MediaNone        Media = "none"
	MediaImage       Media = "image"
	MediaVideo       Media = "video"
	MediaPlaceholder Media = "placeholder"
)

// ReviewItem is a pending post plus how a reviewer's client should preview it.
type ReviewItem struct {
	*model.Post
	Media Media `json:"media"`
}

type ReviewPage struct {
	Items []*ReviewItem `json:"items"`
	Next  string        `json:"next,omitempty"`
}

// ModerationController serves the admin review queue on top of the post
// lifecycle.
type ModerationController struct {
	lifecycle *app.Lifecycle
	log       logrus.FieldLogger
}

func NewModerationController(lifecycle *app.Lifecycle, log logrus.FieldLogger) *ModerationController {
	return &ModerationController{
		lifecycle: lifecycle,
		log:       log.WithField("component", "moderation"),
	}
}

func (mc *ModerationController) Queue(ctx context.Context, caller *model.Caller, cursor *app.PostCursor, limit int) (*ReviewPage, error) {
	page, err := mc.lifecycle.ListPending(ctx, caller, cursor, limit)
	if err != nil {
		return nil, err
	}
	items := make([]*ReviewItem, len(page.Posts))
	for i, post := range page.Posts {
		items[i] = toReviewItem(post)
	}
	return &ReviewPage{Items: items, Next: page.Next}, nil
}

func (mc *ModerationController) Review(ctx context.Context, caller *model.Caller, id string) (*ReviewItem, error) {
	post, err := mc.lifecycle.GetPending(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toReviewItem(post), nil
}

func (mc *ModerationController) Approve(ctx context.Context, caller *model.Caller, id string) (*ReviewItem, error) {
	post, err := mc.lifecycle.Approve(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	mc.log.WithFields(logrus.Fields{"post_id": id, "reviewer": caller.Email}).Debug("approved")
	return toReviewItem(post), nil
}

func (mc *ModerationController) Decline(ctx context.Context, caller *model.Caller, id string) error {
	if err := mc.lifecycle.Decline(ctx, caller, id); err != nil {
		return err
	}
	mc.log.WithFields(logrus.Fields{"post_id": id, "reviewer": caller.Email}).Debug("declined")
	return nil
}

// MediaOf picks the preview for a post. Stored types other than image or
// video get a placeholder instead of being rendered.
func MediaOf(post *model.Post) Media {
	if !post.HasAsset() {
		return MediaNone
	}
	if !post.IsRenderableMedia() {
		return MediaPlaceholder
	}
	if strings.HasPrefix(*post.ContentType, "video/") {
		return MediaVideo
	}
	return MediaImage
}

func toReviewItem(post *model.Post) *ReviewItem {
	return &ReviewItem{Post: post, Media: MediaOf(post)}
}
