// Package snapshots stores the serialized application snapshot in the
// app_data table of either store.
package snapshots

import "context"

// Repository reads and replaces the single stored snapshot.
type Repository interface {
	// Replace removes every stored row and inserts value under key. Run it
	// inside a transaction so readers never see an empty table.
	Replace(ctx context.Context, key string, value []byte) error
	// Latest returns the most recently written value, or
	// common.ErrorNotFound when nothing was written yet.
	Latest(ctx context.Context) ([]byte, error)
}
