package lead

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/domain"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/pkg/ctxutil"
)

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, domain.ErrUnauthorized
	}
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

// List returns a page of leads, newest first, and the total match count.
func (s *Service) List(ctx context.Context, in ListInput) ([]*domain.Lead, int, error) {
	if _, ok := ctxutil.OperatorFromCtx(ctx); !ok {
		return nil, 0, domain.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, 0, err
	}
	items, total, err := s.leads.List(ctx, domain.LeadFilter{
		Status: in.Status,
		Source: in.Source,
		Search: strings.TrimSpace(in.Search),
		Page:   in.Page.Normalize(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return items, total, nil
}
