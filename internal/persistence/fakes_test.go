package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/dmitrijs2005/recordkeeper/internal/storage"
)

type failingStore struct {
	name string
	err  error
}

func (f *failingStore) Name() string { return f.name }

func (f *failingStore) Ping(context.Context) error { return f.err }

func (f *failingStore) Migrate(context.Context) error { return f.err }

func (f *failingStore) WriteSnapshot(context.Context, models.Snapshot) error { return f.err }

func (f *failingStore) ReadSnapshot(context.Context) (models.Snapshot, error) { return nil, f.err }

// flakyStore reports the primary unreachable for its first failures writes.
type flakyStore struct {
	Store
	failures int
}

func (f *flakyStore) WriteSnapshot(ctx context.Context, s models.Snapshot) error {
	if f.failures > 0 {
		f.failures--
		return common.ErrUnavailable
	}
	return f.Store.WriteSnapshot(ctx, s)
}

func downFallback(t *testing.T) *storage.Fallback {
	t.Helper()
	return storage.NewFallbackWithOpener("unused.db", func(context.Context) (*sql.DB, error) {
		return nil, errors.New("disk unavailable")
	})
}
