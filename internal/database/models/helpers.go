package models

import (
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// lockRow adds a row lock on dialects that support it. SQLite serializes writers on
// the whole database, so the lock is implied there.
func lockRow(db bun.IDB, q *bun.SelectQuery, lock bool) *bun.SelectQuery {
	if lock && db.Dialect().Name() == dialect.PG {
		return q.For("UPDATE")
	}
	return q
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
