package models

import "time"

// TrashItem is a deleted entity held for restore or purge.
type TrashItem struct {
	ID        int64
	Kind      Kind
	Entity    Entity
	DeletedAt time.Time
	DeletedBy string
}

// Key names the trashed entity by its natural key.
func (t TrashItem) Key() string {
	return EntityKey(t.Kind, t.Entity)
}
