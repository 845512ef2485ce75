// Package audit records an append-only trail of every mutation and load,
// preferring the primary store and falling back to the embedded one, and
// mirrors the latest entries into a daily text file.
//
// Audit failures never fail the operation being audited: they are logged
// and reported as common.ErrAuditDropped for callers that want to know.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// Store is the part of a storage backend the logger needs.
type Store interface {
	Name() string
	AppendAudit(ctx context.Context, e *models.AuditEntry) error
	QueryAudit(ctx context.Context, limit int) ([]models.AuditEntry, error)
	CountAudit(ctx context.Context) (int64, error)
}

// Recorder receives the outcome of each append.
type Recorder interface {
	AuditAppended(store string)
	AuditDropped()
}

type Logger struct {
	primary  Store
	fallback Store
	exporter *Exporter
	recorder Recorder
	log      logging.Logger
	now      func() time.Time
}

type Option func(*Logger)

func WithExporter(e *Exporter) Option       { return func(l *Logger) { l.exporter = e } }
func WithRecorder(r Recorder) Option        { return func(l *Logger) { l.recorder = r } }
func WithLog(lg logging.Logger) Option      { return func(l *Logger) { l.log = lg } }
func WithClock(now func() time.Time) Option { return func(l *Logger) { l.now = now } }

// New returns a Logger writing to primary first and fallback second.
// primary may be nil when only the embedded store is configured.
func New(primary, fallback Store, opts ...Option) *Logger {
	l := &Logger{
		primary:  primary,
		fallback: fallback,
		log:      logging.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append stores e. A zero timestamp is set to now, truncated to seconds,
// and an empty actor becomes common.DefaultActor. After a successful
// append the daily export is refreshed.
func (l *Logger) Append(ctx context.Context, e models.AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().Truncate(time.Second)
	}
	if e.Actor == "" {
		e.Actor = common.DefaultActor
	}
	if e.EntityID == "" {
		e.EntityID = "N/A"
	}

	var errs []error
	for _, s := range l.stores() {
		err := s.AppendAudit(ctx, &e)
		if err == nil {
			if l.recorder != nil {
				l.recorder.AuditAppended(s.Name())
			}
			l.export(ctx)
			return nil
		}
		l.log.Debug(ctx, "audit append failed", "store", s.Name(), "err", err)
		errs = append(errs, err)
	}

	if l.recorder != nil {
		l.recorder.AuditDropped()
	}
	l.log.Warn(ctx, "audit entry dropped", "action", e.Label(), "entity", e.EntityID, "err", errors.Join(errs...))
	return fmt.Errorf("%w: %s", common.ErrAuditDropped, e.Label())
}

// Query returns up to limit entries, most recent first, from the first
// store that answers. Entries written to the other store while it was the
// only one reachable are not included.
func (l *Logger) Query(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	var errs []error
	for _, s := range l.stores() {
		entries, err := s.QueryAudit(ctx, limit)
		if err == nil {
			return entries, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("failed to query audit log: %w", errors.Join(errs...))
}

// Count returns the number of entries in the first store that answers.
func (l *Logger) Count(ctx context.Context) (int64, error) {
	var errs []error
	for _, s := range l.stores() {
		n, err := s.CountAudit(ctx)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}
	return 0, fmt.Errorf("failed to count audit log: %w", errors.Join(errs...))
}

// Export writes today's file now and returns its path.
func (l *Logger) Export(ctx context.Context) (string, error) {
	if l.exporter == nil {
		return "", errors.New("audit export is not configured")
	}
	entries, err := l.Query(ctx, l.exporter.Limit())
	if err != nil {
		return "", err
	}
	return l.exporter.Write(ctx, entries)
}

func (l *Logger) export(ctx context.Context) {
	if l.exporter == nil {
		return
	}
	if _, err := l.Export(ctx); err != nil {
		l.log.Warn(ctx, "audit export failed", "err", err)
	}
}

func (l *Logger) stores() []Store {
	out := make([]Store, 0, 2)
	if l.primary != nil {
		out = append(out, l.primary)
	}
	if l.fallback != nil {
		out = append(out, l.fallback)
	}
	return out
}
