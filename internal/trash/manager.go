// Package trash implements non-destructive deletion on the fallback store.
// A deleted entity moves to the trash, from where it is either restored
// once or purged together with every other item.
package trash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	trashrepo "github.com/dmitrijs2005/recordkeeper/internal/repositories/trash"
)

// KindTrash is the entity kind recorded on purge entries.
const KindTrash = "trash"

// Store runs fn in a transaction on the trash table.
type Store interface {
	WithTrash(ctx context.Context, fn func(ctx context.Context, repo trashrepo.Repository) error) error
}

// Auditor records trash operations.
type Auditor interface {
	Append(ctx context.Context, e models.AuditEntry) error
}

type Manager struct {
	store Store
	audit Auditor
	log   logging.Logger
	now   func() time.Time
}

func NewManager(store Store, audit Auditor, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{store: store, audit: audit, log: log, now: time.Now}
}

// MoveToTrash stores entity and returns its trash id. The caller removes
// the entity from its snapshot and saves.
func (m *Manager) MoveToTrash(ctx context.Context, kind models.Kind, entity models.Entity, actor string) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownKind, kind)
	}
	actor = actorOrDefault(actor)

	var id int64
	err := m.store.WithTrash(ctx, func(ctx context.Context, repo trashrepo.Repository) error {
		var err error
		id, err = repo.Insert(ctx, kind, entity, m.now(), actor)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to move %s to trash: %w", kind, err)
	}

	key := models.EntityKey(kind, entity)
	m.record(ctx, models.AuditEntry{
		Action:   models.ActionDelete,
		Kind:     string(kind),
		EntityID: key,
		Detail:   fmt.Sprintf("moved to trash as item %d", id),
		Actor:    actor,
	})
	m.log.Info(ctx, "moved to trash", "kind", kind, "key", key, "id", id)
	return id, nil
}

// Restore removes item id from the trash and returns it so the caller can
// put the entity back into its snapshot. A second restore of the same id
// returns common.ErrorNotFound.
func (m *Manager) Restore(ctx context.Context, id int64, actor string) (models.TrashItem, error) {
	var item models.TrashItem
	err := m.store.WithTrash(ctx, func(ctx context.Context, repo trashrepo.Repository) error {
		var err error
		if item, err = repo.Get(ctx, id); err != nil {
			return err
		}
		ok, err := repo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorNotFound
		}
		return nil
	})
	if errors.Is(err, common.ErrorNotFound) {
		return models.TrashItem{}, fmt.Errorf("trash item %d: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return models.TrashItem{}, fmt.Errorf("failed to restore trash item %d: %w", id, err)
	}

	m.record(ctx, models.AuditEntry{
		Action:   models.ActionRestore,
		Kind:     string(item.Kind),
		EntityID: item.Key(),
		Detail:   fmt.Sprintf("restored from trash item %d", id),
		Actor:    actorOrDefault(actor),
	})
	return item, nil
}

// Purge deletes every trashed item and returns how many were removed.
func (m *Manager) Purge(ctx context.Context, actor string) (int64, error) {
	var n int64
	err := m.store.WithTrash(ctx, func(ctx context.Context, repo trashrepo.Repository) error {
		var err error
		n, err = repo.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge trash: %w", err)
	}

	m.record(ctx, models.AuditEntry{
		Action:   models.ActionPurge,
		Kind:     KindTrash,
		EntityID: "N/A",
		Detail:   fmt.Sprintf("%d items purged", n),
		Actor:    actorOrDefault(actor),
	})
	m.log.Info(ctx, "trash purged", "items", n)
	return n, nil
}

// List returns trashed items, most recently deleted first.
func (m *Manager) List(ctx context.Context) ([]models.TrashItem, error) {
	var items []models.TrashItem
	err := m.store.WithTrash(ctx, func(ctx context.Context, repo trashrepo.Repository) error {
		var err error
		items, err = repo.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	return items, nil
}

func (m *Manager) Count(ctx context.Context) (int64, error) {
	var n int64
	err := m.store.WithTrash(ctx, func(ctx context.Context, repo trashrepo.Repository) error {
		var err error
		n, err = repo.Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count trash: %w", err)
	}
	return n, nil
}

func (m *Manager) record(ctx context.Context, e models.AuditEntry) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(ctx, e); err != nil {
		m.log.Warn(ctx, "trash audit entry not recorded", "action", e.Label(), "err", err)
	}
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return common.DefaultActor
	}
	return actor
}
