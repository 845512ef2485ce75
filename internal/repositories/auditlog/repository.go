// Package auditlog persists audit entries in the audit_logs table.
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// Repository appends and reads audit entries. Rows are never updated.
type Repository interface {
	Append(ctx context.Context, entry *models.AuditEntry) (int64, error)
	// Recent returns up to limit entries, most recent first. A limit of
	// zero or less returns every entry.
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
	Count(ctx context.Context) (int64, error)
}
