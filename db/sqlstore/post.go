package sqlstore

import (
	"context"
	"errors"
	"time"

	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/upper/db/v4"
)

const postsTable = "posts"

type PostDB struct {
	sess db.Session
	now  func() time.Time
}

func getPostDB(sess db.Session) *PostDB {
	return &PostDB{
		sess: sess,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

func (pdb *PostDB) posts(ctx context.Context) db.Collection {
	return pdb.sess.WithContext(ctx).Collection(postsTable)
}

// CreatePost inserts the row as pending. Moderation is the only way to flip it.
func (pdb *PostDB) CreatePost(ctx context.Context, req *appDb.CreatePost) (*model.Post, error) {
	now := pdb.now()
	post := &model.Post{
		Id:          req.Id,
		Title:       req.Title,
		Description: req.Description,
		MainContent: req.MainContent,
		AuthorEmail: model.NormalizeEmail(req.AuthorEmail),
		Content:     req.Content,
		ContentType: req.ContentType,
		IsPublic:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := inTx(ctx, pdb.sess, func(tx db.Session) error {
		if _, err := tx.Collection(postsTable).Insert(post); err != nil {
			if appDb.IsDupKeyErr(err) {
				return appDb.ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func visibilityCond(visibility appDb.Visibility) db.Cond {
	switch visibility {
	case appDb.VisibilityPublic:
		return db.Cond{"is_public": true}
	case appDb.VisibilityPending:
		return db.Cond{"is_public": false}
	default:
		return db.Cond{}
	}
}

// GetPostById only returns the row when it satisfies the visibility filter,
// so a pending post is indistinguishable from a missing one on public paths.
func (pdb *PostDB) GetPostById(ctx context.Context, id string, visibility appDb.Visibility) (*model.Post, error) {
	cond := visibilityCond(visibility)
	cond["id"] = id

	var post model.Post
	if err := pdb.posts(ctx).Find(cond).One(&post); err != nil {
		if errors.Is(err, db.ErrNoMoreRows) {
			return nil, appDb.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (pdb *PostDB) GetPosts(ctx context.Context, query *appDb.PostsListQuery) ([]*model.Post, error) {
	cond := visibilityCond(query.Visibility)
	if query.AuthorEmail != "" {
		cond["email"] = model.NormalizeEmail(query.AuthorEmail)
	}

	conds := []interface{}{cond}
	if query.From != nil {
		conds = append(conds, db.Or(
			db.Cond{"created_at <": *query.From},
			db.And(db.Cond{"created_at": *query.From}, db.Cond{"id <": query.LastId}),
		))
	}

	posts := []*model.Post{} // DON'T return nil slice
	if err := pdb.posts(ctx).
		Find(conds...).
		OrderBy("-created_at", "-id").
		Limit(appDb.ClampLimit(query.Limit)).
		All(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// withPost runs fn on the row with the given id inside a transaction.
func (pdb *PostDB) withPost(ctx context.Context, id string, fn func(res db.Result) error) error {
	return inTx(ctx, pdb.sess, func(tx db.Session) error {
		res := tx.Collection(postsTable).Find(db.Cond{"id": id})
		count, err := res.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			return appDb.ErrNotFound
		}
		return fn(res)
	})
}

func (pdb *PostDB) UpdatePost(ctx context.Context, id string, req *appDb.UpdatePost) error {
	return pdb.withPost(ctx, id, func(res db.Result) error {
		return res.Update(map[string]interface{}{
			"title":        req.Title,
			"description":  req.Description,
			"main_content": req.MainContent,
			"content":      req.Content,
			"content_type": req.ContentType,
			"updated_at":   pdb.now(),
		})
	})
}

// SetPublic is idempotent: re-approving leaves the row unchanged apart from updated_at.
func (pdb *PostDB) SetPublic(ctx context.Context, id string) error {
	return pdb.withPost(ctx, id, func(res db.Result) error {
		return res.Update(map[string]interface{}{
			"is_public":  true,
			"updated_at": pdb.now(),
		})
	})
}

func (pdb *PostDB) DeletePost(ctx context.Context, id string) error {
	return pdb.withPost(ctx, id, func(res db.Result) error {
		return res.Delete()
	})
}
