package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
)

// ClientRepo is the in-memory client collection.
type ClientRepo struct {
	store *Store
}

func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var out *domain.Client
	err := r.store.read(ctx, func(st *state) error {
		c, ok := st.clients[id]
		if !ok {
			return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

func (r *ClientRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Client, error) {
	var out []*domain.Client
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range ids {
			if c, ok := st.clients[id]; ok {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (r *ClientRepo) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var out *domain.Client
	err := r.store.read(ctx, func(st *state) error {
		for _, c := range st.clients {
			if c.Email == email {
				out = c.Clone()
				return nil
			}
		}
		return fmt.Errorf("client with email %s: %w", email, domain.ErrNotFound)
	})
	return out, err
}

func (r *ClientRepo) List(ctx context.Context, f domain.ClientFilter) ([]*domain.Client, int, error) {
	var (
		out   []*domain.Client
		total int
	)
	search := domain.NormalizeText(f.Search)
	err := r.store.read(ctx, func(st *state) error {
		var matched []*domain.Client
		for _, c := range st.clients {
			if f.Status != nil && c.Status != *f.Status {
				continue
			}
			if search != "" && !matchesAny(search, c.Name, c.Email, deref(c.Company)) {
				continue
			}
			matched = append(matched, c)
		}
		slices.SortFunc(matched, func(a, b *domain.Client) int {
			return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
		})
		total = len(matched)
		for _, c := range page(matched, f.Page) {
			out = append(out, c.Clone())
		}
		return nil
	})
	return out, total, err
}

func (r *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.clients[c.ID]; ok || clientEmailTaken(st, c.Email, c.ID) {
			return fmt.Errorf("client %s: %w", c.ID, domain.ErrAlreadyExists)
		}
		st.clients[c.ID] = c.Clone()
		return nil
	})
}

func (r *ClientRepo) Update(ctx context.Context, c *domain.Client, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.clients[c.ID]
		if !ok {
			return fmt.Errorf("client %s: %w", c.ID, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("client %s: %w", c.ID, domain.ErrConflict)
		}
		if clientEmailTaken(st, c.Email, c.ID) {
			return fmt.Errorf("client %s: %w", c.ID, domain.ErrAlreadyExists)
		}
		st.clients[c.ID] = c.Clone()
		return nil
	})
}

func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID, expected time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		cur, ok := st.clients[id]
		if !ok {
			return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		if !cur.UpdatedAt.Equal(expected) {
			return fmt.Errorf("client %s: %w", id, domain.ErrConflict)
		}
		for _, e := range st.engagements {
			if e.ClientID == id {
				// Mirrors the engagements.client_id foreign key.
				return fmt.Errorf("client %s: %w", id, domain.ErrConflict)
			}
		}
		delete(st.clients, id)
		return nil
	})
}

func clientEmailTaken(st *state, email string, except uuid.UUID) bool {
	for id, other := range st.clients {
		if id != except && other.Email == email {
			return true
		}
	}
	return false
}
