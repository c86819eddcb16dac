package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/phrazzld/wordwise-srs/internal/platform/migrations"
	"github.com/phrazzld/wordwise-srs/internal/platform/sqlite"
	"github.com/phrazzld/wordwise-srs/internal/store"
	"github.com/phrazzld/wordwise-srs/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runner, err := migrations.NewRunner(db, migrations.DriverSQLite, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))
	return db
}

func TestProfileStore(t *testing.T) {
	storetest.RunProfileStoreTests(t, func(t *testing.T) (storetest.Store, *sql.DB) {
		db := openMigrated(t)
		return sqlite.NewProfileStore(db, nil), db
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	_, err := sqlite.Open(ctx, "")
	assert.Error(t, err)

	db, err := sqlite.Open(ctx, "file:"+t.TempDir()+"/wordwise.db")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	v, err := sqlite.Version(ctx, db)
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestMapError(t *testing.T) {
	ctx := context.Background()
	db := openMigrated(t)

	assert.NoError(t, sqlite.MapError(nil))
	assert.ErrorIs(t, sqlite.MapError(sql.ErrNoRows), store.ErrNotFound)

	plain := errors.New("disk I/O error")
	assert.Same(t, plain, sqlite.MapError(plain))

	_, err := db.ExecContext(ctx, `
		INSERT INTO learner_profiles (user_id, streak, created_at, updated_at)
		VALUES ('u-1', -1, '', '')`)
	require.Error(t, err)
	assert.ErrorIs(t, sqlite.MapError(err), store.ErrInvalidEntity)

	_, err = db.ExecContext(ctx, `
		INSERT INTO learner_profiles (user_id, created_at, updated_at)
		VALUES ('u-2', '', '')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO learner_profiles (user_id, created_at, updated_at)
		VALUES ('u-2', '', '')`)
	require.Error(t, err)
	mapped := sqlite.MapError(err)
	assert.True(t, errors.Is(mapped, store.ErrDuplicate) || errors.Is(mapped, store.ErrInvalidEntity),
		"primary key conflict maps to a store error: %v", mapped)
}
