package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// ActivityRepo is the append-only in-memory activity log.
type ActivityRepo struct {
	store *Store
}

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	return r.store.write(ctx, func(st *state) error {
		st.activities = append(st.activities, a.Clone())
		return nil
	})
}

// ListByEntity returns the record's activities newest first.
func (r *ActivityRepo) ListByEntity(ctx context.Context, kind domain.EntityKind, id uuid.UUID, limit int) ([]*domain.Activity, error) {
	return r.collect(ctx, limit, func(a *domain.Activity) bool {
		return belongsTo(a, kind, id)
	})
}

// LatestByAction returns the newest activity of the given action for a record.
func (r *ActivityRepo) LatestByAction(ctx context.Context, kind domain.EntityKind, id uuid.UUID, action domain.ActivityAction) (*domain.Activity, error) {
	found, err := r.collect(ctx, 1, func(a *domain.Activity) bool {
		return belongsTo(a, kind, id) && a.Action == action
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("activity %s for %s %s: %w", action, kind, id, domain.ErrNotFound)
	}
	return found[0], nil
}

// ListByEntitySince returns the record's activities created at or after since,
// restricted to actions when any are given.
func (r *ActivityRepo) ListByEntitySince(ctx context.Context, kind domain.EntityKind, id uuid.UUID, since time.Time, actions ...domain.ActivityAction) ([]*domain.Activity, error) {
	return r.collect(ctx, 0, func(a *domain.Activity) bool {
		if !belongsTo(a, kind, id) || a.CreatedAt.Before(since) {
			return false
		}
		return len(actions) == 0 || slices.Contains(actions, a.Action)
	})
}

func (r *ActivityRepo) ListRecent(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error) {
	return r.collect(ctx, f.Limit, func(a *domain.Activity) bool {
		if f.Kind != nil && a.EntityKind != *f.Kind {
			return false
		}
		return f.Action == nil || a.Action == *f.Action
	})
}

// collect walks the log newest first; entries sharing a timestamp keep
// reverse append order. A limit <= 0 means no limit.
func (r *ActivityRepo) collect(ctx context.Context, limit int, match func(a *domain.Activity) bool) ([]*domain.Activity, error) {
	var out []*domain.Activity
	err := r.store.read(ctx, func(st *state) error {
		ordered := slices.Clone(st.activities)
		slices.Reverse(ordered)
		slices.SortStableFunc(ordered, func(a, b *domain.Activity) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		for _, a := range ordered {
			if !match(a) {
				continue
			}
			out = append(out, a.Clone())
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func belongsTo(a *domain.Activity, kind domain.EntityKind, id uuid.UUID) bool {
	return a.EntityKind == kind && a.EntityID != nil && *a.EntityID == id
}
