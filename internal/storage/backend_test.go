package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/trash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallback(t *testing.T) *Fallback {
	t.Helper()
	return NewFallback(filepath.Join(t.TempDir(), "data", "fallback.db"))
}

func sampleSnapshot(t *testing.T) models.Snapshot {
	t.Helper()
	s := models.NewSnapshot()
	v, err := models.NewEntity("plate", "AB-123-CD", "year", 2019, "first_aid_kit", true)
	require.NoError(t, err)
	p, err := models.NewEntity("item", "Gloves", "quantity", 10, "unit_price", 2.5)
	require.NoError(t, err)
	s[models.KindVehicle] = []models.Entity{v}
	s[models.KindPurchase] = []models.Entity{p}
	return s
}

func TestReadSnapshot_EmptyStoreYieldsEmptySnapshot(t *testing.T) {
	f := newFallback(t)

	got, err := f.ReadSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.Equal(t, 0, got.Total())
}

func TestWriteReadSnapshot_RoundTrip(t *testing.T) {
	f := newFallback(t)
	ctx := context.Background()
	s := sampleSnapshot(t)

	require.NoError(t, f.WriteSnapshot(ctx, s))
	got, err := f.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, s.Equal(got))

	s2 := models.NewSnapshot()
	require.NoError(t, f.WriteSnapshot(ctx, s2))
	got, err = f.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Total(), "write must replace, not merge")

	size, err := f.Size()
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestReadSnapshot_Corrupt(t *testing.T) {
	f := newFallback(t)
	ctx := context.Background()

	require.NoError(t, f.Session(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `INSERT INTO app_data (key, value) VALUES ('app_data', 'not json')`)
		return err
	}))

	_, err := f.ReadSnapshot(ctx)
	require.ErrorContains(t, err, "corrupt")
	require.NotErrorIs(t, err, common.ErrUnavailable)
}

func TestUnreachableStore_IsUnavailable(t *testing.T) {
	open := func(ctx context.Context) (*sql.DB, error) {
		return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	}
	b := NewFallbackWithOpener("unused.db", open)
	ctx := context.Background()

	require.ErrorIs(t, b.Ping(ctx), common.ErrUnavailable)

	_, err := b.ReadSnapshot(ctx)
	require.ErrorIs(t, err, common.ErrUnavailable)

	err = b.WriteSnapshot(ctx, models.NewSnapshot())
	require.ErrorIs(t, err, common.ErrUnavailable)

	err = b.AppendAudit(ctx, &models.AuditEntry{Action: models.ActionLoad})
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestAudit_AppendQueryCount(t *testing.T) {
	f := newFallback(t)
	ctx := context.Background()

	e := &models.AuditEntry{Action: models.ActionStartup, Kind: models.KindDatabase, EntityID: "N/A", Actor: "u"}
	require.NoError(t, f.AppendAudit(ctx, e))
	assert.Equal(t, int64(1), e.ID)

	got, err := f.QueryAudit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ActionStartup, got[0].Action)

	n, err := f.CountAudit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMigrate_RunsOncePerBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")
	opens := 0
	base := SQLiteOpener(path)
	open := func(ctx context.Context) (*sql.DB, error) {
		opens++
		return base(ctx)
	}
	f := NewFallbackWithOpener(path, open)
	ctx := context.Background()

	require.NoError(t, f.Migrate(ctx))
	require.True(t, f.migrated)
	require.NoError(t, f.Migrate(ctx))
	assert.Equal(t, 2, opens, "each call opens its own connection")
}

func TestWithTrash_RollsBackOnError(t *testing.T) {
	f := newFallback(t)
	ctx := context.Background()
	e, err := models.NewEntity("type", "Brakes")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = f.WithTrash(ctx, func(ctx context.Context, repo trash.Repository) error {
		if _, err := repo.Insert(ctx, models.KindAnomaly, e, time.Now(), "u"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, f.WithTrash(ctx, func(ctx context.Context, repo trash.Repository) error {
		n, err = repo.Count(ctx)
		return err
	}))
	assert.Zero(t, n)
}

func TestSize_MissingFile(t *testing.T) {
	f := NewFallback(filepath.Join(t.TempDir(), "never.db"))
	n, err := f.Size()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, statErr := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(statErr))
}
