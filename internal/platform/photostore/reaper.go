package photostore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ReferenceChecker reports whether any stage record still points at a photo.
type ReferenceChecker interface {
	PhotoReferenced(ctx context.Context, id string) (bool, error)
}

// Reaper deletes photos that were uploaded but never attached to a case
// stage. The grace period keeps photos alive long enough for the mobile
// client to finish the stage submission that references them.
type Reaper struct {
	store    Store
	refs     ReferenceChecker
	grace    time.Duration
	interval time.Duration
	log      zerolog.Logger
}

func NewReaper(store Store, refs ReferenceChecker, grace time.Duration, log zerolog.Logger) *Reaper {
	if grace <= 0 {
		grace = 60 * time.Minute
	}
	return &Reaper{
		store:    store,
		refs:     refs,
		grace:    grace,
		interval: grace / 2,
		log:      log.With().Str("component", "photo_reaper").Logger(),
	}
}

// Run blocks until ctx is cancelled, sweeping on a ticker.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("photo sweep failed")
			}
		}
	}
}

// Sweep performs a single pass over the store.
func (r *Reaper) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.grace)
	ids, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	var removed int
	for _, id := range ids {
		meta, err := r.store.Stat(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		if meta.CreatedAt.After(cutoff) {
			continue
		}
		referenced, err := r.refs.PhotoReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			continue
		}
		if err := r.store.Delete(ctx, id); err != nil {
			return err
		}
		removed++
	}
	if removed > 0 {
		r.log.Info().Int("removed", removed).Msg("reaped orphaned photos")
	}
	return nil
}
