// Package repomanager vends dialect-specific repositories and runs the
// embedded goose migrations of each store.
package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/auditlog"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/snapshots"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Snapshots(db dbx.DBTX) snapshots.Repository
	Audit(db dbx.DBTX) auditlog.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package state, so migrations of
// the two stores must not interleave.
var gooseMu sync.Mutex
