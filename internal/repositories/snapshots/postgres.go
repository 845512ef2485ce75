package snapshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
)

// PostgresRepository implements Repository for the primary store.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Replace(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM app_data`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query := `
		INSERT INTO app_data (key, value, updated_at)
		VALUES ($1, $2, now())
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Latest(ctx context.Context) ([]byte, error) {
	query := `
		SELECT value FROM app_data
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var value string
	err := r.db.QueryRowContext(ctx, query).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return []byte(value), nil
}
