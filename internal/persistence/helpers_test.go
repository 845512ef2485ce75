package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/audit"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/dmitrijs2005/recordkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/recordkeeper/internal/storage"
	"github.com/stretchr/testify/require"
)

// switchable opens a SQLite file standing in for the primary server, or
// fails like an unreachable one while down is set.
type switchable struct {
	path  string
	down  atomic.Bool
	opens atomic.Int32
}

func (s *switchable) open(ctx context.Context) (*sql.DB, error) {
	s.opens.Add(1)
	if s.down.Load() {
		return nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	}
	return storage.SQLiteOpener(s.path)(ctx)
}

type env struct {
	primaryLink *switchable
	primary     *storage.Backend
	fallback    *storage.Fallback
	audit       *audit.Logger
	coord       *Coordinator
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	dir := t.TempDir()

	link := &switchable{path: filepath.Join(dir, "primary.db")}
	primary := storage.New("primary", link.open, repomanager.NewSQLiteRepositoryManager())
	fallback := storage.NewFallback(filepath.Join(dir, "fallback.db"))
	al := audit.New(primary, fallback)

	opts = append([]Option{
		WithAuditor(al),
		WithRetryPolicy(RetryPolicy{Attempts: 5, Delay: time.Millisecond}),
	}, opts...)

	return &env{
		primaryLink: link,
		primary:     primary,
		fallback:    fallback,
		audit:       al,
		coord:       New(primary, fallback, opts...),
	}
}

func entity(t *testing.T, pairs ...any) models.Entity {
	t.Helper()
	e, err := models.NewEntity(pairs...)
	require.NoError(t, err)
	return e
}

func vehicles(t *testing.T, plates ...string) []models.Entity {
	t.Helper()
	out := make([]models.Entity, 0, len(plates))
	for _, p := range plates {
		out = append(out, entity(t, "plate", p, "make", "Renault", "year", 2021, "extinguisher", true))
	}
	return out
}

func fullSnapshot(t *testing.T) models.Snapshot {
	t.Helper()
	s := models.NewSnapshot()
	s[models.KindVehicle] = vehicles(t, "AB-123-CD", "EF-456-GH")
	s[models.KindPurchase] = []models.Entity{
		entity(t, "date", "2026-03-02", "item", "Gloves", "quantity", 12, "unit_price", 3.75, "currency", "EUR (€)"),
	}
	s[models.KindAnomaly] = []models.Entity{
		entity(t, "reported_at", "2026-03-01", "type", "Brakes", "priority", "High", "resolved_at", nil),
	}
	s[models.KindCredential] = []models.Entity{
		entity(t, "employee", "Martin", "credential_type", "CACES", "days_remaining", -4),
	}
	return s
}
