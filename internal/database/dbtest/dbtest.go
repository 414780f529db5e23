// Package dbtest opens throwaway databases for store-backed tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/robalyx/zoonas/internal/database"
	"github.com/robalyx/zoonas/internal/database/service"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	_ "modernc.org/sqlite"
)

// Open returns a migrated in-memory database that is closed when the test ends.
//
// The pool holds a single connection, so concurrent transactions queue up behind each
// other the way row locks serialize them on Postgres.
func Open(t testing.TB) *bun.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqldb, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, database.Migrate(t.Context(), db, zap.NewNop()))
	return db
}

// NewClient returns a database client over a fresh in-memory database.
func NewClient(t testing.TB, settings service.Settings, publisher service.Publisher) database.Client {
	t.Helper()

	return database.NewClient(Open(t), settings, publisher, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)))
}
