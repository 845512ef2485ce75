// Package storage adapts the primary (PostgreSQL) and fallback (SQLite)
// stores to one contract used by the persistence coordinator, the audit
// logger and the trash manager.
//
// Every operation opens its own connection, verifies it, runs and closes
// it again. Connection failures are reported wrapped with
// common.ErrUnavailable so callers can tell an unreachable store from a
// failed statement.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/repomanager"
)

// Backend is one store.
type Backend struct {
	name    string
	open    dbx.Opener
	repos   repomanager.RepositoryManager
	logger  logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	migrated bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for schema setup messages.
func WithLogger(l logging.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// WithConnectTimeout bounds how long opening and pinging may take.
func WithConnectTimeout(d time.Duration) Option {
	return func(b *Backend) { b.timeout = d }
}

// New assembles a Backend from an opener and the repositories of its dialect.
func New(name string, open dbx.Opener, repos repomanager.RepositoryManager, opts ...Option) *Backend {
	b := &Backend{
		name:   name,
		open:   open,
		repos:  repos,
		logger: logging.Nop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Backend) Name() string { return b.name }

// Ping opens and verifies a connection without touching the schema.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return dbx.Session(ctx, b.open, func(context.Context, *sql.DB) error { return nil })
}

// Migrate ensures the schema exists. It runs at most once successfully per
// Backend; later calls return immediately.
func (b *Backend) Migrate(ctx context.Context) error {
	return b.Session(ctx, func(context.Context, *sql.DB) error { return nil })
}

// Session runs fn on a fresh, verified connection with the schema in place.
func (b *Backend) Session(ctx context.Context, fn func(ctx context.Context, db *sql.DB) error) error {
	return dbx.Session(ctx, b.open, func(ctx context.Context, db *sql.DB) error {
		if err := b.ensureSchema(ctx, db); err != nil {
			return err
		}
		return fn(ctx, db)
	})
}

// WriteSnapshot replaces the stored snapshot in one transaction.
func (b *Backend) WriteSnapshot(ctx context.Context, s models.Snapshot) error {
	payload, err := json.Marshal(s.Normalize())
	if err != nil {
		return fmt.Errorf("%s: encode snapshot: %w", b.name, err)
	}

	err = b.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return b.repos.Snapshots(tx).Replace(ctx, common.SnapshotKey, payload)
		})
	})
	if err != nil {
		return fmt.Errorf("%s: write snapshot: %w", b.name, err)
	}
	return nil
}

// ReadSnapshot returns the stored snapshot, or an empty one when nothing
// was written yet.
func (b *Backend) ReadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var payload []byte
	err := b.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		payload, err = b.repos.Snapshots(db).Latest(ctx)
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read snapshot: %w", b.name, err)
	}

	s, err := models.DecodeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: stored snapshot is corrupt: %w", b.name, err)
	}
	return s, nil
}

// AppendAudit stores e and sets its ID.
func (b *Backend) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	err := b.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := b.repos.Audit(db).Append(ctx, e)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: append audit: %w", b.name, err)
	}
	return nil
}

// QueryAudit returns up to limit entries, most recent first.
func (b *Backend) QueryAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	var out []models.AuditEntry
	err := b.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		out, err = b.repos.Audit(db).Recent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: query audit: %w", b.name, err)
	}
	return out, nil
}

func (b *Backend) CountAudit(ctx context.Context) (int64, error) {
	var n int64
	err := b.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		var err error
		n, err = b.repos.Audit(db).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: count audit: %w", b.name, err)
	}
	return n, nil
}

func (b *Backend) ensureSchema(ctx context.Context, db *sql.DB) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.migrated {
		return nil
	}
	if err := b.repos.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to prepare %s schema: %w", b.name, err)
	}
	b.migrated = true
	b.logger.Debug(ctx, "schema ready", "store", b.name)
	return nil
}

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}
