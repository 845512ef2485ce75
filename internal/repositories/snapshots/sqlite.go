package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
)

// SQLiteRepository implements Repository for the fallback store.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Replace(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM app_data`); err != nil {
		return fmt.Errorf("failed to clear app_data: %w", err)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_data (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("failed to insert app_data[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM app_data ORDER BY updated_at DESC, rowid DESC LIMIT 1`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read app_data: %w", err)
	}
	return []byte(value), nil
}
