package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// LeadRepo is the in-memory lead collection.
type LeadRepo struct {
	store *Store
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var out *domain.Lead
	err := r.store.read(ctx, func(st *state) error {
		l, ok := st.leads[id]
		if !ok {
			return fmt.Errorf("lead %s: %w", id, domain.ErrNotFound)
		}
		out = l.Clone()
		return nil
	})
	return out, err
}

// GetByIDs returns the leads that exist among ids. Missing ids are skipped.
func (r *LeadRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Lead, error) {
	var out []*domain.Lead
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range ids {
			if l, ok := st.leads[id]; ok {
				out = append(out, l.Clone())
			}
		}
		return nil
	})
	return out, err
}

// FindActiveByEmail returns the non-archived lead with the given email.
func (r *LeadRepo) FindActiveByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	var out *domain.Lead
	err := r.store.read(ctx, func(st *state) error {
		for _, l := range st.leads {
			if l.Email == email && l.Status != domain.LeadStatusArchived {
				out = l.Clone()
				return nil
			}
		}
		return fmt.Errorf("lead with email %s: %w", email, domain.ErrNotFound)
	})
	return out, err
}

func (r *LeadRepo) List(ctx context.Context, f domain.LeadFilter) ([]*domain.Lead, int, error) {
	var (
		out   []*domain.Lead
		total int
	)
	search := domain.NormalizeText(f.Search)
	err := r.store.read(ctx, func(st *state) error {
		var matched []*domain.Lead
		for _, l := range st.leads {
			if f.Status != nil && l.Status != *f.Status {
				continue
			}
			if f.Source != nil && l.Source != *f.Source {
				continue
			}
			if search != "" && !matchesAny(search, l.Name, l.Email, deref(l.Company)) {
				continue
			}
			matched = append(matched, l)
		}
		slices.SortFunc(matched, func(a, b *domain.Lead) int {
			return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		})
		total = len(matched)
		for _, l := range page(matched, f.Page) {
			out = append(out, l.Clone())
		}
		return nil
	})
	return out, total, err
}

// Create inserts a lead. A second non-archived lead with the same email is
// rejected with ErrAlreadyExists.
func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.leads[l.ID]; ok {
			return fmt.Errorf("lead %s: %w", l.ID, domain.ErrAlreadyExists)
		}
		if l.Status != domain.LeadStatusArchived && activeLeadEmailTaken(st, l.Email, l.ID) {
			return fmt.Errorf("lead %s: %w", l.ID, domain.ErrAlreadyExists)
		}
		st.leads[l.ID] = l.Clone()
		return nil
	})
}

// Update replaces the stored lead when its last-modified timestamp still
// equals expected.
func (r *LeadRepo) Update(ctx context.Context, l *domain.Lead, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.leads[l.ID]
		if !ok {
			return fmt.Errorf("lead %s: %w", l.ID, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("lead %s: %w", l.ID, domain.ErrConflict)
		}
		if l.Status != domain.LeadStatusArchived && activeLeadEmailTaken(st, l.Email, l.ID) {
			return fmt.Errorf("lead %s: %w", l.ID, domain.ErrAlreadyExists)
		}
		st.leads[l.ID] = l.Clone()
		return nil
	})
}

func (r *LeadRepo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.leads[id]
		if !ok {
			return fmt.Errorf("lead %s: %w", id, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("lead %s: %w", id, domain.ErrConflict)
		}
		delete(st.leads, id)
		return nil
	})
}

func activeLeadEmailTaken(st *state, email string, except uuid.UUID) bool {
	for id, other := range st.leads {
		if id != except && other.Email == email && other.Status != domain.LeadStatusArchived {
			return true
		}
	}
	return false
}

func matchesAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(domain.NormalizeText(f), needle) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newestFirst(a, b time.Time, aID, bID uuid.UUID) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return strings.Compare(bID.String(), aID.String())
}
