// Package trash stores soft-deleted entities in the corbeille table of the
// fallback store.
package trash

import (
	"context"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, kind models.Kind, entity models.Entity, deletedAt time.Time, deletedBy string) (int64, error)
	// Get returns common.ErrorNotFound when no item has id.
	Get(ctx context.Context, id int64) (models.TrashItem, error)
	// Delete removes one item and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	// List returns items most recently deleted first.
	List(ctx context.Context) ([]models.TrashItem, error)
	Count(ctx context.Context) (int64, error)
}
