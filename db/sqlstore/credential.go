package sqlstore

import (
	"context"

	appDb "github.com/navbryce/next-post-be/db"
	"github.com/navbryce/next-post-be/model"
	"github.com/upper/db/v4"
)

type CredentialDB struct {
	sess db.Session
}

func getCredentialDB(sess db.Session) *CredentialDB {
	return &CredentialDB{sess}
}

func (cdb *CredentialDB) CreateCredential(ctx context.Context, cred *appDb.Credential) error {
	row := *cred
	row.Email = model.NormalizeEmail(row.Email)
	return inTx(ctx, cdb.sess, func(tx db.Session) error {
		if _, err := tx.Collection("credentials").Insert(&row); err != nil {
			if appDb.IsDupKeyErr(err) {
				return appDb.ErrConflict
			}
			return err
		}
		return nil
	})
}

func (cdb *CredentialDB) GetCredential(ctx context.Context, email string) (*appDb.Credential, error) {
	var cred appDb.Credential
	if err := cdb.sess.WithContext(ctx).
		Collection("credentials").
		Find(db.Cond{"email": model.NormalizeEmail(email)}).
		One(&cred); err != nil {
		if err == db.ErrNoMoreRows {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (cdb *CredentialDB) CreateSession(ctx context.Context, session *appDb.Session) error {
	return inTx(ctx, cdb.sess, func(tx db.Session) error {
		_, err := tx.Collection("sessions").Insert(session)
		return err
	})
}

func (cdb *CredentialDB) GetSession(ctx context.Context, id string) (*appDb.Session, error) {
	var session appDb.Session
	if err := cdb.sess.WithContext(ctx).
		Collection("sessions").
		Find(db.Cond{"id": id}).
		One(&session); err != nil {
		if err == db.ErrNoMoreRows {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (cdb *CredentialDB) DeleteSession(ctx context.Context, id string) error {
	return inTx(ctx, cdb.sess, func(tx db.Session) error {
		return tx.Collection("sessions").Find(db.Cond{"id": id}).Delete()
	})
}
