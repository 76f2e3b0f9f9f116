package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// EngagementRepo is the in-memory engagement collection.
type EngagementRepo struct {
	store *Store
}

func (r *EngagementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Engagement, error) {
	var out *domain.Engagement
	err := r.store.read(ctx, func(st *state) error {
		e, ok := st.engagements[id]
		if !ok {
			return fmt.Errorf("engagement %s: %w", id, domain.ErrNotFound)
		}
		out = e.Clone()
		return nil
	})
	return out, err
}

func (r *EngagementRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Engagement, error) {
	var out []*domain.Engagement
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range ids {
			if e, ok := st.engagements[id]; ok {
				out = append(out, e.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (r *EngagementRepo) List(ctx context.Context, f domain.EngagementFilter) ([]*domain.Engagement, int, error) {
	var (
		out   []*domain.Engagement
		total int
	)
	search := domain.NormalizeText(f.Search)
	err := r.store.read(ctx, func(st *state) error {
		var matched []*domain.Engagement
		for _, e := range st.engagements {
			if f.Status != nil && e.Status != *f.Status {
				continue
			}
			if f.ClientID != nil && e.ClientID != *f.ClientID {
				continue
			}
			if search != "" && !matchesAny(search, e.Title, deref(e.Type)) {
				continue
			}
			matched = append(matched, e)
		}
		slices.SortFunc(matched, func(a, b *domain.Engagement) int {
			return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		})
		total = len(matched)
		for _, e := range page(matched, f.Page) {
			out = append(out, e.Clone())
		}
		return nil
	})
	return out, total, err
}

// CountByClient returns how many engagements reference clientID.
func (r *EngagementRepo) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var n int
	err := r.store.read(ctx, func(st *state) error {
		for _, e := range st.engagements {
			if e.ClientID == clientID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// Create inserts an engagement. The referenced client must exist.
func (r *EngagementRepo) Create(ctx context.Context, e *domain.Engagement) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.engagements[e.ID]; ok {
			return fmt.Errorf("engagement %s: %w", e.ID, domain.ErrAlreadyExists)
		}
		if _, ok := st.clients[e.ClientID]; !ok {
			return fmt.Errorf("engagement %s: client %s: %w", e.ID, e.ClientID, domain.ErrNotFound)
		}
		st.engagements[e.ID] = e.Clone()
		return nil
	})
}

func (r *EngagementRepo) Update(ctx context.Context, e *domain.Engagement, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.engagements[e.ID]
		if !ok {
			return fmt.Errorf("engagement %s: %w", e.ID, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("engagement %s: %w", e.ID, domain.ErrConflict)
		}
		st.engagements[e.ID] = e.Clone()
		return nil
	})
}

func (r *EngagementRepo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.engagements[id]
		if !ok {
			return fmt.Errorf("engagement %s: %w", id, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("engagement %s: %w", id, domain.ErrConflict)
		}
		delete(st.engagements, id)
		return nil
	})
}
