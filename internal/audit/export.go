package audit

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/filex"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// DefaultExportLimit is how many recent entries a daily file holds.
const DefaultExportLimit = 1000

// DefaultUploadTimeout bounds one upload of the daily file.
const DefaultUploadTimeout = 30 * time.Second

const separator = "--------------------------------------------------"

// Uploader copies a finished export off-site.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// Exporter renders entries to <dir>/audit_logs_YYYY-MM-DD.txt, replacing
// the day's file on every write.
type Exporter struct {
	dir           string
	limit         int
	uploader      Uploader
	uploadTimeout time.Duration
	log           logging.Logger
	now           func() time.Time
}

type ExporterOption func(*Exporter)

func WithUploader(u Uploader) ExporterOption         { return func(e *Exporter) { e.uploader = u } }
func WithExportLog(lg logging.Logger) ExporterOption { return func(e *Exporter) { e.log = lg } }
func WithExportClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// WithUploadTimeout bounds each upload. Non-positive values keep
// DefaultUploadTimeout.
func WithUploadTimeout(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		if d > 0 {
			e.uploadTimeout = d
		}
	}
}

func NewExporter(dir string, limit int, opts ...ExporterOption) *Exporter {
	if limit <= 0 {
		limit = DefaultExportLimit
	}
	e := &Exporter{
		dir:           dir,
		limit:         limit,
		uploadTimeout: DefaultUploadTimeout,
		log:           logging.Nop(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Exporter) Limit() int { return e.limit }

// FileName is the export file name for day.
func FileName(day time.Time) string {
	return fmt.Sprintf("audit_logs_%s.txt", day.Format("2006-01-02"))
}

// Write renders entries to today's file and uploads it when an uploader
// is configured. Upload failures and timeouts are logged, not returned.
func (e *Exporter) Write(ctx context.Context, entries []models.AuditEntry) (string, error) {
	dir, err := filex.EnsureDir(e.dir)
	if err != nil {
		return "", fmt.Errorf("failed to prepare audit dir: %w", err)
	}

	now := e.now()
	path := filepath.Join(dir, FileName(now))
	if err := filex.WriteFileAtomic(path, Render(entries, now), 0o640); err != nil {
		return "", fmt.Errorf("failed to write audit export: %w", err)
	}

	if e.uploader != nil {
		e.upload(ctx, path)
	}
	return path, nil
}

// upload runs under its own deadline so a stalled endpoint cannot hold up
// the operation being audited.
func (e *Exporter) upload(ctx context.Context, path string) {
	ctx, cancel := context.WithTimeout(ctx, e.uploadTimeout)
	defer cancel()
	if err := e.uploader.Upload(ctx, path); err != nil {
		e.log.Warn(ctx, "audit export upload failed", "path", path, "timeout", e.uploadTimeout, "err", err)
	}
}

// Render formats entries as the human-readable export.
func Render(entries []models.AuditEntry, generated time.Time) []byte {
	var b bytes.Buffer
	b.WriteString("=== AUDIT LOG ===\n")
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format(common.TimestampLayout))
	b.WriteString(strings.Repeat("=", len(separator)) + "\n\n")

	for _, en := range entries {
		fmt.Fprintf(&b, "[%s] %s\n", en.Timestamp.Format(common.TimestampLayout), en.Label())
		fmt.Fprintf(&b, "  Type: %s | ID: %s | Action: %s\n", en.Kind, en.EntityID, en.Action)
		fmt.Fprintf(&b, "  Details: %s\n", en.Detail)
		fmt.Fprintf(&b, "  User: %s\n", en.Actor)
		b.WriteString(separator + "\n")
	}
	return b.Bytes()
}
