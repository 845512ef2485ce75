package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
	"github.com/dmitrijs2005/recordkeeper/internal/filex"
	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// Init prepares both stores and records a STARTUP entry.
func (a *App) Init(ctx context.Context) error {
	if err := a.coord.Startup(ctx, a.cfg.Actor); err != nil {
		return err
	}
	a.probe(ctx)
	fmt.Fprintf(a.out, "stores ready (primary %s, fallback %s)\n", a.Mode(), a.fallback.Path())
	return nil
}

// Load reads and merges both stores, prints per-kind counts and, when
// path is set, writes the merged snapshot there as JSON.
func (a *App) Load(ctx context.Context, path string) error {
	view, err := a.coord.Load(ctx)
	if err != nil {
		return err
	}
	a.printCounts(view)

	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := filex.WriteFileAtomic(path, append(b, '\n'), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "snapshot written to %s\n", path)
	return nil
}

// Import saves the snapshot held in the JSON file at path, replacing the
// stored one.
func (a *App) Import(ctx context.Context, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	s, err := models.DecodeSnapshot(b)
	if err != nil {
		return err
	}

	change := models.DefaultChange()
	change.Detail = fmt.Sprintf("snapshot imported from %s", path)
	change.Actor = a.cfg.Actor
	return a.save(ctx, s, change)
}

// List prints the entities of kind with their position and natural key.
func (a *App) List(ctx context.Context, kind models.Kind) error {
	view, err := a.coord.Sync(ctx)
	if err != nil {
		return err
	}
	for i, e := range view[kind] {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entity: %w", err)
		}
		fmt.Fprintf(a.out, "%3d  %-20s %s\n", i, models.EntityKey(kind, e), b)
	}
	if len(view[kind]) == 0 {
		fmt.Fprintf(a.out, "no %s\n", kind)
	}
	return nil
}

// Add builds an entity of kind from name=value pairs and saves it.
func (a *App) Add(ctx context.Context, kind models.Kind, pairs []string) error {
	values, err := ParseFields(pairs)
	if err != nil {
		return err
	}
	schema, _ := models.SchemaFor(kind)
	e, err := schema.Build(values)
	if err != nil {
		return err
	}

	view, err := a.coord.Sync(ctx)
	if err != nil {
		return err
	}
	key := schema.KeyOf(e)
	return a.save(ctx, view.Append(kind, e), models.Change{
		Action:   models.ActionCreate,
		Kind:     string(kind),
		EntityID: key,
		Detail:   fmt.Sprintf("%s %s added", kind, key),
		Actor:    a.cfg.Actor,
	})
}

// Update sets fields on the entity of kind named key.
func (a *App) Update(ctx context.Context, kind models.Kind, key string, pairs []string) error {
	values, err := ParseFields(pairs)
	if err != nil {
		return err
	}
	view, err := a.coord.Sync(ctx)
	if err != nil {
		return err
	}
	i, err := view.Find(kind, key)
	if err != nil {
		return err
	}

	s := view.Normalize()
	e := s[kind][i]
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if e, err = e.With(name, values[name]); err != nil {
			return err
		}
	}
	s[kind][i] = e

	return a.save(ctx, s, models.Change{
		Action:   models.ActionUpdate,
		Kind:     string(kind),
		EntityID: key,
		Detail:   fmt.Sprintf("%s %s updated: %s", kind, key, strings.Join(names, ", ")),
		Actor:    a.cfg.Actor,
	})
}

// Delete moves the entity of kind named key to the trash and saves the
// collection without it. Nothing is removed when the trash cannot take it.
func (a *App) Delete(ctx context.Context, kind models.Kind, key string) error {
	view, err := a.coord.Sync(ctx)
	if err != nil {
		return err
	}
	i, err := view.Find(kind, key)
	if err != nil {
		return err
	}
	s, removed, err := view.Remove(kind, i)
	if err != nil {
		return err
	}

	id, err := a.trash.MoveToTrash(ctx, kind, removed, a.cfg.Actor)
	if err != nil {
		return err
	}
	err = a.save(ctx, s, models.Change{
		Action:   models.ActionUpdate,
		Kind:     string(kind),
		EntityID: key,
		Detail:   fmt.Sprintf("%s %s removed, trash item %d", kind, key, id),
		Actor:    a.cfg.Actor,
	})
	if err != nil {
		if _, rerr := a.trash.Restore(ctx, id, a.cfg.Actor); rerr != nil {
			a.log.Warn(ctx, "deleted entity left in trash after failed save", "trash_id", id, "err", rerr)
		}
		return err
	}
	return nil
}

// TrashList prints the trash, newest first.
func (a *App) TrashList(ctx context.Context) error {
	items, err := a.trash.List(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%4d  %-12s %-20s %s by %s\n",
			it.ID, it.Kind, it.Key(), it.DeletedAt.Format(common.TimestampLayout), it.DeletedBy)
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "trash is empty")
	}
	return nil
}

// Restore takes item id out of the trash and appends it to its
// collection. The item goes back to the trash when the save fails.
func (a *App) Restore(ctx context.Context, id int64) error {
	item, err := a.trash.Restore(ctx, id, a.cfg.Actor)
	if err != nil {
		return err
	}
	view, err := a.coord.Sync(ctx)
	if err == nil {
		err = a.save(ctx, view.Append(item.Kind, item.Entity), models.Change{
			Action:   models.ActionUpdate,
			Kind:     string(item.Kind),
			EntityID: item.Key(),
			Detail:   fmt.Sprintf("%s %s restored from trash", item.Kind, item.Key()),
			Actor:    a.cfg.Actor,
		})
	}
	if err != nil {
		if _, terr := a.trash.MoveToTrash(ctx, item.Kind, item.Entity, item.DeletedBy); terr != nil {
			a.log.Error(ctx, "restored entity lost", "kind", item.Kind, "key", item.Key(), "err", terr)
		}
		return err
	}
	return nil
}

// Purge empties the trash.
func (a *App) Purge(ctx context.Context) error {
	n, err := a.trash.Purge(ctx, a.cfg.Actor)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d items purged\n", n)
	return nil
}

// AuditTail prints the last n audit entries.
func (a *App) AuditTail(ctx context.Context, n int) error {
	entries, err := a.audit.Query(ctx, n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "[%s] %-20s %-20s %s (%s)\n",
			e.Timestamp.Format(common.TimestampLayout), e.Label(), e.EntityID, e.Detail, e.Actor)
	}
	return nil
}

// AuditExport writes today's export file.
func (a *App) AuditExport(ctx context.Context) error {
	path, err := a.audit.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "audit exported to %s\n", path)
	return nil
}

// Stats prints entity counts and store statistics.
func (a *App) Stats(ctx context.Context) error {
	st, err := a.coord.Stats(ctx, a.trash, a.fallback)
	if err != nil {
		return err
	}
	for _, k := range models.AllKinds {
		fmt.Fprintf(a.out, "%-12s %d\n", k, st.Counts[k])
	}
	fmt.Fprintf(a.out, "%-12s %d\n", "total", st.Total)
	fmt.Fprintf(a.out, "primary      %s\n", reachability(st.PrimaryReachable))
	fmt.Fprintf(a.out, "trash        %d\n", st.TrashItems)
	fmt.Fprintf(a.out, "audit        %d\n", st.AuditEntries)
	fmt.Fprintf(a.out, "fallback     %d bytes\n", st.FallbackBytes)
	return nil
}

// Health probes both stores and reports their state. It fails only when
// neither answers.
func (a *App) Health(ctx context.Context) error {
	a.probe(ctx)
	perr := a.primary.Ping(ctx)
	ferr := a.fallback.Ping(ctx)
	fmt.Fprintf(a.out, "primary   %s  %s\n", reachability(perr == nil), a.cfg.Primary().Redacted())
	fmt.Fprintf(a.out, "fallback  %s  %s\n", reachability(ferr == nil), a.fallback.Path())
	if perr != nil && ferr != nil {
		return fmt.Errorf("no store reachable: primary: %v; fallback: %v", perr, ferr)
	}
	return nil
}

func (a *App) save(ctx context.Context, s models.Snapshot, change models.Change) error {
	res, err := a.coord.Save(ctx, s, change)
	if err != nil {
		return err
	}
	if !res.PrimaryOK {
		fmt.Fprintf(a.out, "primary unreachable after %d attempts, saved to fallback only\n", res.PrimaryAttempts)
	}
	a.printCounts(res.View)
	return nil
}

func (a *App) printCounts(s models.Snapshot) {
	parts := make([]string, 0, len(models.AllKinds))
	for _, k := range models.AllKinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, len(s[k])))
	}
	fmt.Fprintln(a.out, strings.Join(parts, " "))
}

func reachability(ok bool) string {
	if ok {
		return "reachable"
	}
	return "unreachable"
}
