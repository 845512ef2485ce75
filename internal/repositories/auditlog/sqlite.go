package auditlog

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/dbx"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// SQLiteRepository implements Repository on the fallback store. Timestamps
// are kept as local time text in common.TimestampLayout.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (timestamp, user_action, entity_type, entity_id, action_type, details, user_info)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Timestamp.Format(common.TimestampLayout), entry.Label(), entry.Kind, entry.EntityID,
		string(entry.Action), entry.Detail, entry.Actor)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read audit entry id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, timestamp, entity_type, entity_id, action_type, details, user_info
		FROM audit_logs
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var result []models.AuditEntry
	for rows.Next() {
		var (
			e      models.AuditEntry
			ts     string
			action string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.EntityID, &action, &e.Detail, &e.Actor); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if e.Timestamp, err = time.ParseInLocation(common.TimestampLayout, ts, time.Local); err != nil {
			return nil, fmt.Errorf("audit entry %d: bad timestamp %q: %w", e.ID, ts, err)
		}
		e.Action = models.Action(action)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}
