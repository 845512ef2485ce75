package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX on the primary store.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	query := `
		INSERT INTO audit_logs (timestamp, user_action, entity_type, entity_id, action_type, details, user_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.Timestamp, entry.Label(), entry.Kind, entry.EntityID, string(entry.Action), entry.Detail, entry.Actor,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return entry.ID, nil
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, timestamp, entity_type, entity_id, action_type, details, user_info
		FROM audit_logs
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.AuditEntry
	for rows.Next() {
		var (
			e      models.AuditEntry
			ts     time.Time
			action string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.EntityID, &action, &e.Detail, &e.Actor); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		e.Timestamp = ts
		e.Action = models.Action(action)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
