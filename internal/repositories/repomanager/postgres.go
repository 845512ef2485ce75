package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	pgmigrations "github.com/dmitrijs2005/recordkeeper/internal/migrations/postgres"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/auditlog"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/snapshots"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends repositories for the primary store.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Snapshots(db dbx.DBTX) snapshots.Repository {
	return snapshots.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewPostgresRepository(db)
}

// RunMigrations applies the embedded PostgreSQL migrations. Every statement
// is create-if-absent, so running it against an existing schema is a no-op.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(pgmigrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}
