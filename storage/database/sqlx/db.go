// Package sqlxrepos implements the repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

const pqForeignKeyViolation = "23503"

// dbError maps driver errors to domain errors and wraps everything else in a core.PersistenceError.
func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return errors.Wrap(core.ErrNotFound, pqErr.Detail)
	}
	return core.NewPersistenceError(op, err)
}

// mustAffect returns core.ErrNotFound when res did not affect any row.
func mustAffect(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// withTx runs fn in a transaction, committing it if fn succeeds.
func withTx(ctx context.Context, db core.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	clause := " ORDER BY "
	for i, ord := range ordering {
		if i > 0 {
			clause += ", "
		}
		clause += ord.String()
	}
	return clause + ", " + fallback
}
