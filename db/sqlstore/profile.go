package sqlstore

import (
	"context"

	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/upper/db/v4"
)

const profilesTable = "profiles"

type ProfileDB struct {
	sess db.Session
}

func getProfileDB(sess db.Session) *ProfileDB {
	return &ProfileDB{sess}
}

func (pdb *ProfileDB) CreateProfile(ctx context.Context, profile *model.Profile) error {
	row := *profile
	row.Email = model.NormalizeEmail(row.Email)
	if row.Role == "" {
		row.Role = model.RoleUser
	}
	return inTx(ctx, pdb.sess, func(tx db.Session) error {
		if _, err := tx.Collection(profilesTable).Insert(&row); err != nil {
			if appDb.IsDupKeyErr(err) {
				return appDb.ErrConflict
			}
			return err
		}
		return nil
	})
}

// GetProfile returns nil, nil when the identity has no profile yet.
func (pdb *ProfileDB) GetProfile(ctx context.Context, userId string) (*model.Profile, error) {
	return pdb.findOne(ctx, db.Cond{"user_id": userId})
}

// GetProfileByEmail returns nil, nil when no profile uses the address.
func (pdb *ProfileDB) GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return pdb.findOne(ctx, db.Cond{"email": model.NormalizeEmail(email)})
}

// RelinkProfile moves the profile owning email to a new identity subject,
// keeping its role.
func (pdb *ProfileDB) RelinkProfile(ctx context.Context, email, userId string) error {
	return pdb.updateByEmail(ctx, email, map[string]interface{}{"user_id": userId})
}

func (pdb *ProfileDB) SetRole(ctx context.Context, email string, role model.Role) error {
	return pdb.updateByEmail(ctx, email, map[string]interface{}{"role": role})
}

func (pdb *ProfileDB) updateByEmail(ctx context.Context, email string, fields map[string]interface{}) error {
	return inTx(ctx, pdb.sess, func(tx db.Session) error {
		res := tx.Collection(profilesTable).Find(db.Cond{"email": model.NormalizeEmail(email)})
		count, err := res.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			return appDb.ErrNotFound
		}
		if err := res.Update(fields); err != nil {
			if appDb.IsDupKeyErr(err) {
				return appDb.ErrConflict
			}
			return err
		}
		return nil
	})
}

func (pdb *ProfileDB) findOne(ctx context.Context, cond db.Cond) (*model.Profile, error) {
	var profile model.Profile
	if err := pdb.sess.WithContext(ctx).
		Collection(profilesTable).
		Find(cond).
		One(&profile); err != nil {
		if err == db.ErrNoMoreRows {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}
