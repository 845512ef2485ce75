// Package persistence coordinates saving and loading application snapshots
// across the primary and fallback stores.
//
// Save writes the primary with retries and always writes the fallback, so
// the embedded copy is never older than the last successful save. Load
// reads both and reconciles them kind by kind with Merge.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/logging"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/google/uuid"
)

// Store is one snapshot store.
type Store interface {
	Name() string
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	WriteSnapshot(ctx context.Context, s models.Snapshot) error
	ReadSnapshot(ctx context.Context) (models.Snapshot, error)
}

// Auditor records coordinator operations.
type Auditor interface {
	Append(ctx context.Context, e models.AuditEntry) error
	Count(ctx context.Context) (int64, error)
}

// Recorder receives operation outcomes, typically for metrics.
type Recorder interface {
	SnapshotWritten(store string, ok bool, attempts int)
	SnapshotLoaded(report MergeReport)
}

// SaveResult reports which stores accepted a save and the reconciled
// view read back afterwards.
type SaveResult struct {
	PrimaryOK       bool
	FallbackOK      bool
	PrimaryAttempts int
	View            models.Snapshot
}

type Coordinator struct {
	primary  Store
	fallback Store
	audit    Auditor
	policy   RetryPolicy
	recorder Recorder
	log      logging.Logger
	actor    string
}

type Option func(*Coordinator)

func WithAuditor(a Auditor) Option         { return func(c *Coordinator) { c.audit = a } }
func WithRetryPolicy(p RetryPolicy) Option { return func(c *Coordinator) { c.policy = p } }
func WithRecorder(r Recorder) Option       { return func(c *Coordinator) { c.recorder = r } }
func WithLogger(l logging.Logger) Option   { return func(c *Coordinator) { c.log = l } }
func WithActor(actor string) Option        { return func(c *Coordinator) { c.actor = actor } }

func New(primary, fallback Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		primary:  primary,
		fallback: fallback,
		policy:   DefaultRetryPolicy(),
		log:      logging.Nop(),
		actor:    common.DefaultActor,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Save persists s and records change in the audit trail. A zero change
// is recorded as an update of the whole database. Save succeeds when at
// least one store accepted the snapshot; it returns
// common.ErrDataUnavailable when neither did.
func (c *Coordinator) Save(ctx context.Context, s models.Snapshot, change models.Change) (SaveResult, error) {
	log := c.log.With("op", uuid.NewString(), "action", "save")
	s = s.Normalize()

	var res SaveResult
	attempts, perr := c.policy.Do(ctx, func(ctx context.Context) error {
		return c.primary.WriteSnapshot(ctx, s)
	})
	res.PrimaryAttempts = attempts
	res.PrimaryOK = perr == nil
	if perr != nil {
		log.Warn(ctx, "primary write failed, relying on fallback", "attempts", attempts, "err", perr)
	}
	c.observeWrite(c.primary.Name(), res.PrimaryOK, attempts)

	ferr := c.fallback.WriteSnapshot(ctx, s)
	res.FallbackOK = ferr == nil
	if ferr != nil {
		log.Warn(ctx, "fallback write failed", "err", ferr)
	}
	c.observeWrite(c.fallback.Name(), res.FallbackOK, 1)

	if change.Action == "" {
		change = models.DefaultChange()
	}
	c.record(ctx, log, models.AuditEntry{
		Action:   change.Action,
		Kind:     change.Kind,
		EntityID: change.EntityID,
		Detail:   fmt.Sprintf("%s (primary: %s, fallback: %s)", change.Detail, outcome(perr), outcome(ferr)),
		Actor:    change.Actor,
	})

	if perr != nil && ferr != nil {
		log.Error(ctx, "snapshot not saved", "primary_err", perr, "fallback_err", ferr)
		return res, fmt.Errorf("%w: primary: %v; fallback: %v", common.ErrDataUnavailable, perr, ferr)
	}

	view, _, err := c.read(ctx, log)
	if err != nil {
		log.Warn(ctx, "read-back after save failed, returning the saved snapshot", "err", err)
		view = s
	}
	res.View = view
	log.Info(ctx, "snapshot saved", "primary", res.PrimaryOK, "fallback", res.FallbackOK, "entities", s.Total())
	return res, nil
}

// Load reads both stores, merges them and records a LOAD entry. Stores
// that are reachable but empty yield an empty snapshot without error.
func (c *Coordinator) Load(ctx context.Context) (models.Snapshot, error) {
	log := c.log.With("op", uuid.NewString(), "action", "load")

	view, report, err := c.read(ctx, log)
	if err != nil {
		log.Error(ctx, "load failed", "err", err)
		return nil, err
	}

	c.record(ctx, log, models.AuditEntry{
		Action:   models.ActionLoad,
		Kind:     models.KindDatabase,
		EntityID: "N/A",
		Detail:   report.String(),
	})
	return view, nil
}

// Sync is Load without the audit entry.
func (c *Coordinator) Sync(ctx context.Context) (models.Snapshot, error) {
	view, _, err := c.read(ctx, c.log.With("op", uuid.NewString(), "action", "sync"))
	return view, err
}

// PrimaryReachable probes the primary once, without retrying.
func (c *Coordinator) PrimaryReachable(ctx context.Context) bool {
	return c.primary.Ping(ctx) == nil
}

// Startup prepares both schemas and records a STARTUP entry for actor.
// The primary is given the retry policy. Failing to reach it is not an
// error as long as the fallback is ready.
func (c *Coordinator) Startup(ctx context.Context, actor string) error {
	log := c.log.With("op", uuid.NewString(), "action", "startup")

	_, perr := c.policy.Do(ctx, c.primary.Migrate)
	if perr != nil {
		log.Warn(ctx, "primary store not ready, running on fallback", "err", perr)
	}
	if err := c.fallback.Migrate(ctx); err != nil {
		log.Error(ctx, "fallback store not ready", "err", err)
		if perr != nil {
			return fmt.Errorf("%w: primary: %v; fallback: %v", common.ErrDataUnavailable, perr, err)
		}
		return fmt.Errorf("failed to prepare fallback store: %w", err)
	}

	c.record(ctx, log, models.AuditEntry{
		Action:   models.ActionStartup,
		Kind:     models.KindDatabase,
		EntityID: "N/A",
		Detail:   fmt.Sprintf("started (primary: %s)", outcome(perr)),
		Actor:    actor,
	})
	return nil
}

func (c *Coordinator) read(ctx context.Context, log logging.Logger) (models.Snapshot, MergeReport, error) {
	primary, perr := c.primary.ReadSnapshot(ctx)
	if perr != nil {
		log.Warn(ctx, "primary read failed", "err", perr)
		primary = nil
	}
	fallback, ferr := c.fallback.ReadSnapshot(ctx)
	if ferr != nil {
		log.Warn(ctx, "fallback read failed", "err", ferr)
		fallback = nil
	}
	if perr != nil && ferr != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrDataUnavailable, errors.Join(perr, ferr))
	}

	view, report := Merge(primary, fallback)
	for _, k := range models.AllKinds {
		kr := report[k]
		log.Debug(ctx, "merged kind", "kind", k, "source", kr.Source, "primary", kr.Primary, "fallback", kr.Fallback)
	}
	if c.recorder != nil {
		c.recorder.SnapshotLoaded(report)
	}
	return view, report, nil
}

func (c *Coordinator) record(ctx context.Context, log logging.Logger, e models.AuditEntry) {
	if c.audit == nil {
		return
	}
	if e.Actor == "" {
		e.Actor = c.actor
	}
	if err := c.audit.Append(ctx, e); err != nil {
		log.Warn(ctx, "audit entry not recorded", "entry", e.Label(), "err", err)
	}
}

func (c *Coordinator) observeWrite(store string, ok bool, attempts int) {
	if c.recorder != nil {
		c.recorder.SnapshotWritten(store, ok, attempts)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, common.ErrUnavailable) {
		return "unreachable"
	}
	return "failed"
}
