package persistence

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// Stats summarizes what is stored.
type Stats struct {
	Counts           map[models.Kind]int
	Total            int
	PrimaryReachable bool
	TrashItems       int64
	AuditEntries     int64
	FallbackBytes    int64
}

// TrashCounter counts trashed items.
type TrashCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Sizer reports the size of the fallback store on disk.
type Sizer interface {
	Size() (int64, error)
}

// Stats collects live counts from the merged view. The auxiliary numbers
// are best effort: when trash, audit or size cannot be read they are left
// at zero and logged.
func (c *Coordinator) Stats(ctx context.Context, trash TrashCounter, size Sizer) (Stats, error) {
	log := c.log.With("action", "stats")

	view, err := c.Sync(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	st := Stats{
		Counts:           view.Counts(),
		Total:            view.Total(),
		PrimaryReachable: c.PrimaryReachable(ctx),
	}

	if trash != nil {
		if st.TrashItems, err = trash.Count(ctx); err != nil {
			log.Warn(ctx, "trash count unavailable", "err", err)
		}
	}
	if c.audit != nil {
		if st.AuditEntries, err = c.audit.Count(ctx); err != nil {
			log.Warn(ctx, "audit count unavailable", "err", err)
		}
	}
	if size != nil {
		if st.FallbackBytes, err = size.Size(); err != nil {
			log.Warn(ctx, "fallback size unavailable", "err", err)
		}
	}
	return st, nil
}
