package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	litemigrations "github.com/dmitrijs2005/recordkeeper/internal/migrations/sqlite"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/auditlog"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/snapshots"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/trash"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends repositories for the fallback store, which
// also holds the trash.
type SQLiteRepositoryManager struct{}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Snapshots(db dbx.DBTX) snapshots.Repository {
	return snapshots.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Audit(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Trash(db dbx.DBTX) trash.Repository {
	return trash.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(litemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}
