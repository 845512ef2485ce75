package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/filex"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/trash"
	_ "modernc.org/sqlite"
)

// Fallback is the embedded SQLite store. Besides the common contract it
// holds the trash and reports its file size.
type Fallback struct {
	*Backend
	path  string
	repos *repomanager.SQLiteRepositoryManager
}

// SQLiteOpener opens modernc sqlite handles on the file at path, creating
// its directory when missing.
func SQLiteOpener(path string) dbx.Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
		db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
}

// NewFallback returns the SQLite backend stored at path.
func NewFallback(path string, opts ...Option) *Fallback {
	return NewFallbackWithOpener(path, SQLiteOpener(path), opts...)
}

// NewFallbackWithOpener is NewFallback with a custom opener.
func NewFallbackWithOpener(path string, open dbx.Opener, opts ...Option) *Fallback {
	repos := repomanager.NewSQLiteRepositoryManager()
	return &Fallback{
		Backend: New("fallback", open, repos, opts...),
		path:    path,
		repos:   repos,
	}
}

func (f *Fallback) Path() string { return f.path }

// Size returns the database file size in bytes, zero when it does not
// exist yet.
func (f *Fallback) Size() (int64, error) {
	fi, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", f.path, err)
	}
	return fi.Size(), nil
}

// WithTrash runs fn inside one transaction on the trash table.
func (f *Fallback) WithTrash(ctx context.Context, fn func(ctx context.Context, repo trash.Repository) error) error {
	return f.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(ctx, f.repos.Trash(tx))
		})
	})
}
