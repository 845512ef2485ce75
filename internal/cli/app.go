package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/audit"
	"github.com/dmitrijs2005/recordkeeper/internal/config"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/metrics"
	"github.com/dmitrijs2005/recordkeeper/internal/persistence"
	"github.com/dmitrijs2005/recordkeeper/internal/storage"
	"github.com/dmitrijs2005/recordkeeper/internal/trash"
	"github.com/google/uuid"
)

// Mode reflects whether the primary store answered the last probe.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// App wires the stores, audit trail, trash and coordinator for one CLI
// session.
type App struct {
	cfg      *config.Config
	log      logging.Logger
	primary  *storage.Backend
	fallback *storage.Fallback
	audit    *audit.Logger
	trash    *trash.Manager
	coord    *persistence.Coordinator
	metrics  *metrics.Metrics
	in       io.Reader
	out      io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp builds the application from cfg. Nothing is opened until the
// first operation runs. in feeds interactive prompts, out receives
// command output; logs go through log.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) *App {
	log = log.With("session", uuid.NewString())
	m := metrics.New()

	primary := storage.NewPrimary(cfg.Primary(),
		storage.WithLogger(log), storage.WithConnectTimeout(cfg.ConnectTimeout))
	fallback := storage.NewFallback(cfg.FallbackPath,
		storage.WithLogger(log), storage.WithConnectTimeout(cfg.ConnectTimeout))

	exportOpts := []audit.ExporterOption{
		audit.WithExportLog(log),
		audit.WithUploadTimeout(cfg.ConnectTimeout),
	}
	if s3cfg := cfg.S3(); s3cfg.Enabled() {
		up, err := audit.NewS3Uploader(ctx, s3cfg)
		if err != nil {
			log.Warn(ctx, "audit upload disabled", "bucket", s3cfg.Bucket, "err", err)
		} else {
			exportOpts = append(exportOpts, audit.WithUploader(up))
		}
	}
	exporter := audit.NewExporter(cfg.AuditDir, cfg.AuditExportLimit, exportOpts...)

	auditLog := audit.New(primary, fallback,
		audit.WithExporter(exporter), audit.WithRecorder(m), audit.WithLog(log))

	coord := persistence.New(primary, fallback,
		persistence.WithAuditor(auditLog),
		persistence.WithRetryPolicy(cfg.Retry()),
		persistence.WithRecorder(m),
		persistence.WithLogger(log),
		persistence.WithActor(cfg.Actor),
	)

	return &App{
		cfg:      cfg,
		log:      log,
		primary:  primary,
		fallback: fallback,
		audit:    auditLog,
		trash:    trash.NewManager(fallback, auditLog, log),
		coord:    coord,
		metrics:  m,
		in:       in,
		out:      out,
	}
}

// Close flushes metrics to the configured textfile.
func (a *App) Close(ctx context.Context) error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	a.log.Debug(ctx, "metrics written", "path", a.cfg.MetricsFile)
	return nil
}

// Mode returns the result of the last reachability probe, empty before
// the first one.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(ctx, "primary store status changed", "mode", mode)
	}
}

// probe updates Mode from a single reachability check.
func (a *App) probe(ctx context.Context) {
	if a.coord.PrimaryReachable(ctx) {
		a.setMode(ctx, ModeOnline)
	} else {
		a.setMode(ctx, ModeOffline)
	}
}

// StartReachabilityWatcher probes the primary every interval until ctx
// is done. A non-positive interval disables the watcher.
func (a *App) StartReachabilityWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
