package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/wordwise-srs/internal/platform/migrations"
	"github.com/phrazzld/wordwise-srs/internal/platform/postgres"
	"github.com/phrazzld/wordwise-srs/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DATABASE_URL, migrates it and empties every table.
// Tests are skipped when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping PostgreSQL integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	runner, err := migrations.NewRunner(db, migrations.DriverPostgres, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))

	_, err = db.ExecContext(ctx,
		`TRUNCATE daily_activity, card_records, learner_profiles`)
	require.NoError(t, err)

	return db
}

func TestProfileStore(t *testing.T) {
	storetest.RunProfileStoreTests(t, func(t *testing.T) (storetest.Store, *sql.DB) {
		db := openTestDB(t)
		return postgres.NewProfileStore(db, nil), db
	})
}

func TestNewProfileStorePanicsOnNilDB(t *testing.T) {
	require.Panics(t, func() { postgres.NewProfileStore(nil, nil) })
}
