package trash

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, kind models.Kind, entity models.Entity, deletedAt time.Time, deletedBy string) (int64, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s entity: %w", kind, err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO corbeille (entity_type, entity_data, deleted_at, deleted_by)
		VALUES (?, ?, ?, ?)
	`, string(kind), string(data), deletedAt.Format(common.TimestampLayout), deletedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trash item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read trash item id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (models.TrashItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, entity_type, entity_data, deleted_at, deleted_by
		FROM corbeille WHERE id = ?
	`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TrashItem{}, common.ErrorNotFound
	}
	if err != nil {
		return models.TrashItem{}, fmt.Errorf("failed to get trash item %d: %w", id, err)
	}
	return item, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM corbeille WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete trash item %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM corbeille`)
	if err != nil {
		return 0, fmt.Errorf("failed to empty trash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.TrashItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_data, deleted_at, deleted_by
		FROM corbeille
		ORDER BY deleted_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	defer rows.Close()

	var result []models.TrashItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trash item: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trash: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corbeille`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count trash: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (models.TrashItem, error) {
	var (
		item      models.TrashItem
		kind      string
		data      string
		deletedAt string
	)
	if err := s.Scan(&item.ID, &kind, &data, &deletedAt, &item.DeletedBy); err != nil {
		return models.TrashItem{}, err
	}
	item.Kind = models.Kind(kind)
	if err := json.Unmarshal([]byte(data), &item.Entity); err != nil {
		return models.TrashItem{}, fmt.Errorf("item %d: decode entity: %w", item.ID, err)
	}
	ts, err := time.ParseInLocation(common.TimestampLayout, deletedAt, time.Local)
	if err != nil {
		return models.TrashItem{}, fmt.Errorf("item %d: bad deleted_at %q: %w", item.ID, deletedAt, err)
	}
	item.DeletedAt = ts
	return item, nil
}
