package sqlstore

import (
	"context"

	"github.com/upper/db/v4"
)

// inTx runs writes inside a transaction that is rolled back when fn fails.
// The sqlite adapter leaves the connection of a failed autocommit statement
// checked out, so no write may run outside one.
func inTx(ctx context.Context, sess db.Session, fn func(tx db.Session) error) error {
	return sess.TxContext(ctx, fn, nil)
}
