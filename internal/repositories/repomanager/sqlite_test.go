package repomanager

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/recordkeeper/internal/repositories/snapshots"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "fallback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteRunMigrations_CreatesTables(t *testing.T) {
	db := openSQLite(t)
	m := NewSQLiteRepositoryManager()

	require.NoError(t, m.RunMigrations(context.Background(), db))

	for _, table := range []string{"goose_db_version", "app_data", "audit_logs", "corbeille"} {
		require.True(t, tableExists(t, db, table), "table %s", table)
	}
}

func TestSQLiteRunMigrations_IsIdempotent(t *testing.T) {
	db := openSQLite(t)
	m := NewSQLiteRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.RunMigrations(ctx, db))
	require.NoError(t, m.Snapshots(db).Replace(ctx, "app_data", []byte(`{}`)))
	require.NoError(t, m.RunMigrations(ctx, db))

	got, err := m.Snapshots(db).Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(got), "rerun must keep existing data")
}

func TestSQLiteManager_Repositories(t *testing.T) {
	db := openSQLite(t)
	var m RepositoryManager = NewSQLiteRepositoryManager()

	_, ok := m.Snapshots(db).(*snapshots.SQLiteRepository)
	require.True(t, ok)
	require.NotNil(t, m.Audit(db))
	require.NotNil(t, NewSQLiteRepositoryManager().Trash(db))
}
